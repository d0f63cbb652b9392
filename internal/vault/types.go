package vault

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// VaultDAO defines the operations required to manage secrets in a backend vault.
// Implementations must never log or print secret values.
type VaultDAO interface {
	// ListSecrets returns metadata for all secrets in the backend for this service.
	ListSecrets(ctx context.Context) ([]SecretMetadata, error)
	// GetSecretMetadata returns metadata for a specific secret name. If the secret is not set,
	// implementations should return metadata with IsSet=false and no error.
	GetSecretMetadata(ctx context.Context, name string) (SecretMetadata, error)
	// SetSecret creates or updates a secret value.
	SetSecret(ctx context.Context, name string, value []byte) error
	// UnsetSecret deletes the secret.
	UnsetSecret(ctx context.Context, name string) error
	// HasSecret indicates whether a secret exists.
	HasSecret(ctx context.Context, name string) (bool, error)
	// GetSecretForInternalUse fetches the raw secret value for internal usage only.
	// CLI code must never print or log this value.
	GetSecretForInternalUse(ctx context.Context, name string) ([]byte, error)
}

// SecretMetadata contains non-sensitive information about a secret.
type SecretMetadata struct {
	Name      string
	IsSet     bool
	Backend   string
	UpdatedAt *time.Time
}

const (
	// ServiceName groups all secrets belonging to this application in the Keychain.
	ServiceName = "kanri-vault"

	// Well-known secret names the server resolves at startup when the
	// corresponding config values are left empty.
	SecretPostgresPassword = "postgres_password"
	SecretStorageSecretKey = "storage_secret_key"
)

// NewVaultDAO constructs a DAO for the selected backend. For now only "keychain" is supported.
func NewVaultDAO(backend string) (VaultDAO, error) {
	switch backend {
	case "", "keychain":
		return newKeychainVaultDAO()
	default:
		return nil, fmt.Errorf("vault backend not implemented: %s", backend)
	}
}

// package global to cache the backend DAO for internal access.
var cached struct {
	sync.Mutex
	dao VaultDAO
}

// GetSecret provides a safe internal accessor for other packages to retrieve a secret at runtime.
func GetSecret(ctx context.Context, name string) ([]byte, error) {
	cached.Lock()
	if cached.dao == nil {
		dao, err := NewVaultDAO("")
		if err != nil {
			cached.Unlock()
			return nil, err
		}
		cached.dao = dao
	}
	dao := cached.dao
	cached.Unlock()
	return dao.GetSecretForInternalUse(ctx, name)
}
