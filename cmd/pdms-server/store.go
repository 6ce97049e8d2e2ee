package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/pdms/pdms/internal/config"
	"github.com/pdms/pdms/internal/domain/patient"
	"github.com/pdms/pdms/internal/platform/db"
	"github.com/pdms/pdms/internal/platform/hipaa"
)

// recordStore is the configured backend plus whatever it holds open.
type recordStore struct {
	backend patient.Backend
	pool    *pgxpool.Pool
}

func (s *recordStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*recordStore, error) {
	codec, err := storeCodec(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	switch cfg.StoreBackend {
	case config.BackendFile:
		return &recordStore{backend: patient.NewFileRepo(cfg.StorePath, codec)}, nil

	case config.BackendS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		client := s3.New(s3.Options{
			Region:       awsCfg.Region,
			Credentials:  awsCfg.Credentials,
			HTTPClient:   awsCfg.HTTPClient,
			BaseEndpoint: awsCfg.BaseEndpoint,
			UsePathStyle: true,
		})
		logger.Info().Str("bucket", cfg.StoreS3Bucket).Str("key", cfg.StoreS3Key).Str("region", awsCfg.Region).Msg("using s3 record store")
		return &recordStore{backend: patient.NewS3Repo(client, cfg.StoreS3Bucket, cfg.StoreS3Key, codec)}, nil

	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns}, logger)
		if err != nil {
			return nil, err
		}
		return &recordStore{backend: patient.NewPGRepo(pool, cfg.StoreDocument, codec), pool: pool}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func storeCodec(cfg *config.Config) (patient.Codec, error) {
	if cfg.StoreEncryptionKey == "" {
		return patient.Codec{}, nil
	}
	c, err := hipaa.NewDocumentCipherFromHex(cfg.StoreEncryptionKey)
	if err != nil {
		return patient.Codec{}, err
	}
	return patient.Codec{Sealer: c}, nil
}
