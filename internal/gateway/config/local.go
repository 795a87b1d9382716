package config

import (
	"os"
	"strings"
)

// applyLocalDefaults fills in the docker-compose minio credentials and
// turns off TLS when a local artifact endpoint is configured.
func applyLocalDefaults(cfg *Config) {
	if !cfg.Artifact.Enabled {
		return
	}
	cfg.Artifact.AccessKey = firstNonEmpty(cfg.Artifact.AccessKey, "promptlab")
	cfg.Artifact.SecretKey = firstNonEmpty(cfg.Artifact.SecretKey, "promptlab123")
	if strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL")) == "" {
		cfg.Artifact.UseSSL = false
	}
}
