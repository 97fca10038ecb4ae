package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is a var so tests can use bcrypt.MinCost.
var bcryptCost = bcrypt.DefaultCost

// dummyHash is compared against when the account does not exist, so a
// failed login costs the same with or without a matching user.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("portfolio-dummy-password"), bcrypt.DefaultCost)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password []byte) (string, error) {
	h, err := bcrypt.GenerateFromPassword(password, bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether password matches hash. Mismatches are
// (false, nil); malformed hashes return an error.
func CheckPassword(hash string, password []byte) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), password)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// BurnPasswordCheck performs a comparison whose result is discarded.
func BurnPasswordCheck(password []byte) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, password)
}
