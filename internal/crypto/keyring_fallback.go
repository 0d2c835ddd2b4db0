//go:build !darwin && !linux && !windows

package crypto

import (
	"errors"
	"fmt"
)

// unsupportedKeyring stands in on platforms without a credential store.
// The ledger key can only come from RECHNUNGSBUCH_DB_KEY there, which
// NewKeyring consults before reaching this type.
type unsupportedKeyring struct{}

func newPlatformKeyring() Keyring {
	return unsupportedKeyring{}
}

func errNoKeyring(action string) error {
	return fmt.Errorf("no system keyring on this platform: %s %s yourself", action, EnvKey)
}

func (unsupportedKeyring) GetKey() (string, error) {
	return "", errNoKeyring("export")
}

func (unsupportedKeyring) SetKey(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	return errNoKeyring("export")
}

func (unsupportedKeyring) DeleteKey() error {
	return errNoKeyring("unset")
}

func (unsupportedKeyring) IsAvailable() bool { return false }
