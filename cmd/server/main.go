// Package main is the entry point for the project workspace server.
// Its job is config, dependency construction and startup; all logic
// lives in the internal packages.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tahmid/projecthub/internal/blob"
	blobfs "github.com/tahmid/projecthub/internal/blob/fs"
	blobs3 "github.com/tahmid/projecthub/internal/blob/s3"
	"github.com/tahmid/projecthub/internal/config"
	"github.com/tahmid/projecthub/internal/sandbox"
	sandboxdocker "github.com/tahmid/projecthub/internal/sandbox/docker"
	sandboxlocal "github.com/tahmid/projecthub/internal/sandbox/local"
	"github.com/tahmid/projecthub/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required (try: openssl rand -hex 32)")
		os.Exit(1)
	}

	// Make sure the database directory exists before sqlite opens it.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(cfg.DBPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Blob storage: local disk by default, S3-compatible bucket when
	// configured.
	var blobs blob.Store
	var err error
	switch cfg.BlobBackend {
	case "s3":
		blobs, err = blobs3.New(context.Background(), blobs3.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
	default:
		blobs, err = blobfs.New(cfg.UploadDir)
	}
	if err != nil {
		logger.Error("failed to initialise blob storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Sandbox: the docker backend adds container-level resource limits;
	// the local backend needs only a Python interpreter. Either way the
	// server starts; without an executor the run endpoint reports
	// execution as unavailable.
	var exec sandbox.Executor
	switch cfg.SandboxBackend {
	case "docker":
		dockerCfg := sandboxdocker.DefaultConfig()
		d, derr := sandboxdocker.New(dockerCfg, logger)
		if derr != nil {
			logger.Warn("docker sandbox unavailable, code execution disabled",
				slog.String("error", derr.Error()),
			)
		} else {
			defer d.Close()
			exec = d
		}
	default:
		localCfg := sandboxlocal.DefaultConfig()
		localCfg.PythonBin = cfg.PythonBin
		l, lerr := sandboxlocal.New(localCfg, logger)
		if lerr != nil {
			logger.Warn("local sandbox unavailable, code execution disabled",
				slog.String("error", lerr.Error()),
			)
		} else {
			exec = l
		}
	}

	srv, err := server.New(server.Config{
		Port:       cfg.Port,
		DBPath:     cfg.DBPath,
		JWTSecret:  cfg.JWTSecret,
		RunTimeout: cfg.RunTimeout,
	}, logger, exec, blobs)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
