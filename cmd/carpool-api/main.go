// README: Entry point; loads config, wires stores and services, and serves the matching API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"carpool/internal/config"
	httptransport "carpool/internal/http"
	"carpool/internal/http/handlers"
	"carpool/internal/infra"
	"carpool/internal/logger"
	"carpool/internal/maps"
	"carpool/internal/modules/location"
	"carpool/internal/modules/profile"
	"carpool/internal/modules/social"
	"carpool/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, zl)
	stop()
	if err != nil {
		zl.Error("api exited", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
	_ = zl.Sync()
}

// run owns every connection it opens, so they are closed on all return paths.
func run(ctx context.Context, cfg config.Config, zl *zap.Logger) error {
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		return fmt.Errorf("firebase init: %w", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		return fmt.Errorf("redis init: %w", err)
	}
	defer redisClient.Close()

	// Maps features stay off without an API key; interfaces must stay untyped nil in that case.
	var (
		geocoder profile.Geocoder
		routes   handlers.RoutePreviewer
		places   handlers.AddressSearcher
	)
	if cfg.Maps.APIKey != "" {
		geo, err := maps.NewGeocodeService(cfg.Maps.APIKey)
		if err != nil {
			return fmt.Errorf("maps geocode init: %w", err)
		}
		route, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			return fmt.Errorf("maps route init: %w", err)
		}
		search, err := maps.NewPlacesService(cfg.Maps.APIKey)
		if err != nil {
			return fmt.Errorf("maps places init: %w", err)
		}
		geocoder, routes, places = geo, route, search
	} else {
		zl.Warn("maps api key not set; geocoding, route preview and address search disabled")
	}

	locationStore := location.NewStore(redisClient)

	profileStore := profile.NewStore(dbPool)
	profileSvc := profile.NewService(profileStore, geocoder, locationStore, zl.Named("profile"))

	socialStore := social.NewStore(redisClient)
	socialSvc := social.NewService(socialStore)

	explorer := service.NewExplorer(profileSvc, socialSvc, locationStore, cfg.Matching, zl.Named("explorer"))

	router := httptransport.NewRouter(httptransport.Handlers{
		Profiles: handlers.NewProfileHandler(profileSvc, socialSvc, routes),
		Matches:  handlers.NewMatchHandler(explorer),
		Social:   handlers.NewSocialHandler(socialSvc, explorer),
		Places:   handlers.NewPlacesHandler(places),
	}, verifier, zl.Named("http"))

	return httptransport.NewServer(cfg.HTTP.Addr, router, zl).Run(ctx)
}
