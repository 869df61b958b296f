package security

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost defines the bcrypt work factor.
const bcryptCost = 12

// ErrBadCredentials is returned for a wrong admin username or password.
var ErrBadCredentials = errors.New("invalid credentials")

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// AdminCredentials holds the single moderator account of the shop.
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

// NewAdminCredentials builds credentials from configuration. A bcrypt hash
// is used as is; otherwise the plaintext password is hashed once here.
func NewAdminCredentials(username, password, passwordHash string) (AdminCredentials, error) {
	c := AdminCredentials{Username: strings.TrimSpace(username), PasswordHash: strings.TrimSpace(passwordHash)}
	if c.Username == "" {
		c.Username = "admin"
	}
	if c.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.PasswordHash)); err != nil {
			return AdminCredentials{}, err
		}
		return c, nil
	}
	if password == "" {
		return AdminCredentials{}, errors.New("admin password is not configured")
	}
	h, err := HashPassword(password)
	if err != nil {
		return AdminCredentials{}, err
	}
	c.PasswordHash = h
	return c, nil
}

// Verify checks a login attempt.
func (c AdminCredentials) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(c.Username)) == 1
	passOK := c.PasswordHash != "" && CheckPassword(c.PasswordHash, password)
	if !userOK || !passOK {
		return ErrBadCredentials
	}
	return nil
}
