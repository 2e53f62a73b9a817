// README: Provider geo index backed by Redis GEO.
package geo

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/types"
)

const providersGeoKey = "geo:providers"

// Nearby is one provider returned by a radius query, distance in metres.
type Nearby struct {
	ProviderID types.ID
	DistanceM  float64
}

// Index stores provider positions in a Redis GEO set. Redis computes
// distances on its spherical earth model, so radius queries are stable
// near the poles and the date line.
type Index struct {
	redis *redis.Client
}

func NewIndex(rdb *redis.Client) *Index {
	return &Index{redis: rdb}
}

func (i *Index) UpsertProvider(ctx context.Context, id types.ID, p types.Point) error {
	return i.redis.GeoAdd(ctx, providersGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

func (i *Index) RemoveProvider(ctx context.Context, id types.ID) error {
	return i.redis.ZRem(ctx, providersGeoKey, string(id)).Err()
}

// NearestProviders returns providers within radiusMeters of p, closest
// first, capped at limit.
func (i *Index) NearestProviders(ctx context.Context, p types.Point, radiusMeters float64, limit int) ([]Nearby, error) {
	results, err := i.redis.GeoSearchLocation(ctx, providersGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  p.Lng,
			Latitude:   p.Lat,
			Radius:     radiusMeters,
			RadiusUnit: "m",
			Sort:       "ASC",
			Count:      limit,
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Nearby, len(results))
	for idx, r := range results {
		out[idx] = Nearby{ProviderID: types.ID(r.Name), DistanceM: r.Dist}
	}
	return out, nil
}

// Position returns the provider's last known position. The second return
// is false when the provider has no position on record.
func (i *Index) Position(ctx context.Context, id types.ID) (types.Point, bool, error) {
	pos, err := i.redis.GeoPos(ctx, providersGeoKey, string(id)).Result()
	if err != nil {
		return types.Point{}, false, err
	}
	if len(pos) == 0 || pos[0] == nil {
		return types.Point{}, false, nil
	}
	return types.Point{Lat: pos[0].Latitude, Lng: pos[0].Longitude}, true, nil
}
