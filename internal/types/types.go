// README: Common value objects shared across modules.
package types

type ID string

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Money carries an amount in the currency's smallest unit (paise for INR).
type Money struct {
	Amount   int64
	Currency string
}
