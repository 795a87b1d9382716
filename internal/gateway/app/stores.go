package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"promptlab/internal/gateway/config"
	artifactrepo "promptlab/internal/gateway/repository/artifact"
	"promptlab/internal/gateway/repository/projectstore"
	"promptlab/internal/gateway/service/workspace"
	"promptlab/internal/llm"
	llmclient "promptlab/internal/llmClient"
	"promptlab/internal/project"
)

type gatewayStores struct {
	projects project.Repository
	// artifact is nil when no bucket is configured; images are then
	// inlined into the project document.
	artifact artifactrepo.Store
}

func initStores(cfg *config.Config, log *zap.Logger) (*gatewayStores, error) {
	repo, backend, err := projectstore.Open(projectstore.Config{
		PostgresDSN: cfg.Store.PostgresDSN,
		SQLitePath:  cfg.Store.SQLitePath,
		FilePath:    cfg.Store.FilePath,
	}, log)
	if err != nil {
		return nil, err
	}
	stores := &gatewayStores{projects: repo}

	if cfg.Artifact.CanUseS3() {
		s3Cfg := artifactrepo.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		}
		s3Store, err := artifactrepo.NewS3Store(s3Cfg)
		if err != nil {
			stores.close(log)
			return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
		}
		log.Info("artifact store", zap.String("backend", "s3"), zap.String("bucket", s3Cfg.Bucket), zap.String("endpoint", s3Cfg.Endpoint))
		stores.artifact = artifactrepo.NewCachedStore(s3Store, artifactrepo.DefaultCacheConfig())
	} else {
		if cfg.Artifact.Enabled {
			log.Warn("artifact store: s3 config incomplete, inlining result images")
		}
		log.Info("artifact store", zap.String("backend", "inline"), zap.String("project_backend", backend))
	}
	return stores, nil
}

func (s *gatewayStores) close(log *zap.Logger) {
	if c, ok := s.projects.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn("close project store", zap.Error(err))
		}
	}
}

// newBackendFactory yields the Gemini client for a key and the offline
// fake without one.
func newBackendFactory(cfg config.GeminiConfig, log *zap.Logger) workspace.BackendFactory {
	return func(ctx context.Context, apiKey string) (llm.Backend, error) {
		if strings.TrimSpace(apiKey) == "" {
			log.Warn("no gemini api key configured, using the offline fake backend")
			return llmclient.NewFakeClient(), nil
		}
		cli, err := llmclient.NewGeminiClient(ctx, llmclient.GeminiOptions{
			APIKey:     apiKey,
			TextModel:  cfg.TextModel,
			ImageModel: cfg.ImageModel,
		})
		if err != nil {
			return nil, err
		}
		return cli, nil
	}
}

// isSyncNoise filters the error zap returns when syncing a terminal.
func isSyncNoise(err error) bool {
	return errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL)
}
