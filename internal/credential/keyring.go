// Package credential stores the remote-store session token in the
// system keyring. The host app obtains the token at sign-in and hands
// it to the engine; remote store implementations read it back when
// authenticating writes.
package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "habitengine"

// tokenKey namespaces a user's remote token within the keyring.
func tokenKey(userID string) string {
	return "remote-token:" + userID
}

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/habitengine/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("habitengine-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Token retrieves the user's remote session token from the system keyring.
func Token(userID string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(tokenKey(userID))
	if err != nil {
		return "", fmt.Errorf("getting remote token for %q: %w", userID, err)
	}

	return string(item.Data), nil
}

// SetToken stores the user's remote session token in the system keyring.
func SetToken(userID string, token string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  tokenKey(userID),
		Data: []byte(token),
	})
	if err != nil {
		return fmt.Errorf("setting remote token for %q: %w", userID, err)
	}

	return nil
}

// DeleteToken removes the user's remote session token, e.g. on logout.
func DeleteToken(userID string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(tokenKey(userID))
	if err != nil {
		return fmt.Errorf("deleting remote token for %q: %w", userID, err)
	}

	return nil
}
