package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies at registration and at password change.
const MinPasswordLength = 8

var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hashBytes), nil
}

func CheckPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}
