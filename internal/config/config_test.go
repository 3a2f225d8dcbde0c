package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MATCH_THRESHOLD", "")
	t.Setenv("IMAGE_STORE", "")
	t.Setenv("JWT_EXPIRE_HOURS", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "test-secret", cfg.JWTSecret)
	require.Equal(t, 0.6, cfg.MatchThreshold)
	require.Equal(t, ImageStoreDisk, cfg.ImageStore)
	require.Equal(t, 2*time.Hour, cfg.TokenTTL())
	require.False(t, cfg.MatchSymmetricReject)
}

func TestLoad_RejectsUnknownImageStore(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("IMAGE_STORE", "ftp")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ParsesOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("IMAGE_STORE", "minio")
	t.Setenv("MATCH_THRESHOLD", "0.75")
	t.Setenv("MATCH_SYMMETRIC_REJECT", "true")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ImageStoreMinio, cfg.ImageStore)
	require.Equal(t, 0.75, cfg.MatchThreshold)
	require.True(t, cfg.MatchSymmetricReject)
	require.Zero(t, cfg.RequestTimeout())
}
