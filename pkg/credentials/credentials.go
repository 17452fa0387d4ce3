// Package credentials protects the WinRM account used to reach the SMS provider.
// The password may be kept in configuration as a gocrypt AES ciphertext.
package credentials

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/firdasafridi/gocrypt"
)

// WinRM is the account the WinRM scope authenticates with.
type WinRM struct {
	Username string
	Password string `gocrypt:"aes"`
	Domain   string
}

// EncryptStruct encrypts the fields tagged with gocrypt using the provided secret key.
func EncryptStruct[T any](entity T, secretKey string) (T, error) {
	aesOpt, err := gocrypt.NewAESOpt(secretKey)
	if err != nil {
		return entity, fmt.Errorf("invalid secret key: %w", err)
	}

	gc := gocrypt.New(&gocrypt.Option{
		AESOpt: aesOpt,
	})
	if err := gc.Encrypt(&entity); err != nil {
		return entity, fmt.Errorf("encrypting: %w", err)
	}
	return entity, nil
}

// DecryptStruct decrypts the fields tagged with gocrypt using the provided secret key.
func DecryptStruct[T any](entity T, secretKey string) (T, error) {
	aesOpt, err := gocrypt.NewAESOpt(secretKey)
	if err != nil {
		return entity, fmt.Errorf("invalid secret key: %w", err)
	}

	gc := gocrypt.New(&gocrypt.Option{
		AESOpt: aesOpt,
	})
	if err := gc.Decrypt(&entity); err != nil {
		return entity, fmt.Errorf("decrypting: %w", err)
	}
	return entity, nil
}

// Resolve returns the account with a usable password.
// Without a secret key the password is taken as plain text. With a key, a password
// that does not decrypt is also taken as plain text, so unencrypted values keep working.
func Resolve(account WinRM, secretKey string) (WinRM, error) {
	if secretKey == "" || account.Password == "" {
		return account, nil
	}
	if _, err := gocrypt.NewAESOpt(secretKey); err != nil {
		return account, fmt.Errorf("invalid secret key: %w", err)
	}

	decrypted, err := DecryptStruct(account, secretKey)
	if err != nil {
		slog.Warn("WinRM password is not encrypted, using it as is", "component", "Credentials", "user", account.Username)
		return account, nil
	}
	return decrypted, nil
}

// EncryptPassword returns the ciphertext to store in WINRM_PASSWORD.
func EncryptPassword(password, secretKey string) (string, error) {
	if secretKey == "" {
		return "", errors.New("SECRET_KEY is not set")
	}
	enc, err := EncryptStruct(WinRM{Password: password}, secretKey)
	if err != nil {
		return "", err
	}
	return enc.Password, nil
}
