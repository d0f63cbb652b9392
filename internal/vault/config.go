package vault

import (
	"context"

	cfgpkg "github.com/miraijuku/kanri/internal/config"
)

// ApplyToConfig fills vault-backed credentials into config values that were
// left empty. A missing secret or an unsupported backend is not an error:
// empty credentials are valid for trust-auth Postgres and anonymous-read
// object stores, and the eventual connection attempt reports the real
// problem.
func ApplyToConfig(ctx context.Context, cfg *cfgpkg.Config) {
	if cfg.Postgres.Password == "" {
		if v, err := GetSecret(ctx, SecretPostgresPassword); err == nil {
			cfg.Postgres.Password = string(v)
		}
	}
	if cfg.Storage.SecretKey == "" {
		if v, err := GetSecret(ctx, SecretStorageSecretKey); err == nil {
			cfg.Storage.SecretKey = string(v)
		}
	}
}
