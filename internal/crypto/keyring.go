package crypto

import (
	"fmt"
	"os"
)

// Keyring provides secure key storage abstraction
type Keyring interface {
	GetKey() (string, error)
	SetKey(password string) error
	DeleteKey() error
	IsAvailable() bool
}

const (
	ServiceName = "rechnungsbuch"
	KeyName     = "db-encryption-key"

	// EnvKey overrides the keyring on every platform, and is the only
	// source of the key where no keyring exists
	EnvKey = "RECHNUNGSBUCH_DB_KEY"
)

// NewKeyring returns the best available keyring implementation. A key set
// in the environment takes precedence over the platform store.
func NewKeyring() Keyring {
	platform := newPlatformKeyring()
	if os.Getenv(EnvKey) != "" {
		return &envKeyring{fallback: platform}
	}
	return platform
}

// envKeyring reads the key from RECHNUNGSBUCH_DB_KEY and delegates writes to
// the platform keyring
type envKeyring struct {
	fallback Keyring
}

func (k *envKeyring) GetKey() (string, error) {
	key := os.Getenv(EnvKey)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", EnvKey)
	}
	return key, nil
}

func (k *envKeyring) SetKey(password string) error {
	return k.fallback.SetKey(password)
}

func (k *envKeyring) DeleteKey() error {
	return k.fallback.DeleteKey()
}

func (k *envKeyring) IsAvailable() bool {
	return true
}
