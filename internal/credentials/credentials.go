// Package credentials generates throwaway login credentials for new accounts.
package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	UsernameLength = 10
	PasswordLength = 12
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Credentials is a generated username and password pair.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Generate draws a fresh pair from a cryptographic source.
func Generate() (Credentials, error) {
	user, err := randomString(UsernameLength)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to generate username: %w", err)
	}
	pass, err := randomString(PasswordLength)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to generate password: %w", err)
	}
	return Credentials{Username: user, Password: pass}, nil
}

func randomString(n int) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
