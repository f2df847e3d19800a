package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": secret,
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.EqualValues(t, 10<<20, cfg.MaxUploadBytes)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, StorageMinio, cfg.StorageDriver)
	assert.Equal(t, []string{"http://localhost:4200"}, cfg.CORSOrigins)
	assert.Equal(t, "photos", cfg.Minio.Bucket)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":     secret,
		"STORE_DRIVER":   "postgres",
		"STORAGE_DRIVER": "s3",
		"S3_BUCKET":      "dating-photos",
		"TOKEN_TTL":      "1h",
		"CORS_ORIGINS":   "https://a.example,https://b.example",
	}))
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, "dating-photos", cfg.S3.Bucket)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Len(t, cfg.CORSOrigins, 2)
}

func TestLoadWith_MissingSecret(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]map[string]string{
		"short secret":   {"JWT_SECRET": "short"},
		"bad store":      {"JWT_SECRET": secret, "STORE_DRIVER": "sqlite"},
		"bad storage":    {"JWT_SECRET": secret, "STORAGE_DRIVER": "ftp"},
		"s3 sans bucket": {"JWT_SECRET": secret, "STORAGE_DRIVER": "s3"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "config:"))
		})
	}
}
