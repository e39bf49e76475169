package main

import (
	"context"
	"fmt"
	"log/slog"

	"que_bridge/internal/api"
	"que_bridge/internal/auth"
	"que_bridge/internal/config"
	"que_bridge/internal/hvac"
	"que_bridge/internal/request"
	"que_bridge/internal/schema"
	"que_bridge/internal/store"
)

// buildUnit wires the credential store, token manager and cloud client into
// an initialized Unit.
func buildUnit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*hvac.Unit, error) {
	storeOpts := []store.Option{store.WithLogger(logger)}
	if cfg.Blob.Endpoint != "" {
		blob, err := store.NewS3Store(store.BlobConfig{
			Endpoint:      cfg.Blob.Endpoint,
			Bucket:        cfg.Blob.Bucket,
			Prefix:        cfg.Blob.Prefix,
			AccessKeyFile: cfg.Blob.AccessKeyFile,
			SecretKeyFile: cfg.Blob.SecretKeyFile,
			Region:        cfg.Blob.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		storeOpts = append(storeOpts, store.WithBlobStore(blob))
		logger.Info("Mirroring credentials to object storage", "endpoint", cfg.Blob.Endpoint, "bucket", cfg.Blob.Bucket)
	}

	st, err := store.Open(cfg.PersistDir, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	validator, err := schema.New(logger)
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}

	exec := request.New(request.WithLogger(logger))
	tokens := auth.NewManager(exec, validator, st,
		auth.Credentials{Username: cfg.Username, Password: cfg.Password},
		cfg.ClientName, cfg.BaseURL,
		auth.WithLogger(logger),
	)
	client := api.NewAPIClient(exec.WithAuth(tokens), tokens, validator, cfg.BaseURL, cfg.DeviceSerial, logger)

	unit := hvac.NewUnit(client,
		hvac.WithZonesFollowMaster(cfg.ZonesFollowMaster),
		hvac.WithZonesPushMaster(cfg.ZonesPushMaster),
		hvac.WithLogger(logger),
	)
	if err := unit.Initialize(ctx); err != nil {
		return nil, err
	}
	return unit, nil
}
