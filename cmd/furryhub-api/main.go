// README: Entry point; loads config, wires services, starts HTTP server and background sweeps.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/config"
	httptransport "github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/http"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/infra"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/logger"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/maps"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/booking"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/directory"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/geo"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/notify"
)

func main() {
	cfg := config.Load()
	lg := logger.New(cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := infra.Migrate(cfg.DB.DSN, cfg.DB.MigrationsPath, lg); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password)
	geoIndex := geo.NewIndex(redisClient)

	var geocoder directory.Geocoder
	if cfg.Maps.APIKey != "" {
		gc, err := maps.NewGeocodeService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps client: %v", err)
		}
		geocoder = gc
	}

	directoryStore := directory.NewStore(dbPool)
	directorySvc := directory.NewService(directoryStore, geoIndex, geocoder, lg)

	var gateway notify.Gateway = notify.NopGateway{}
	if cfg.SMS.APIURL != "" {
		gateway = notify.NewSMSGateway(cfg.SMS.APIURL, cfg.SMS.APIKey, cfg.SMS.Sender)
	} else {
		lg.Warning("SMS gateway not configured, notifications are dropped")
	}

	bookingStore := booking.NewPGStore(dbPool)
	bookingSvc := booking.NewService(bookingStore, geoIndex, directorySvc, gateway, lg, cfg.Dispatch)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httptransport.NewRouter(bookingSvc, directorySvc, lg),
	}

	go bookingSvc.RunRequestExpirySweep(ctx)
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	lg.Info("listening", logger.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
