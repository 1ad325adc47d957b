// Package admin gives the shop owner a small authenticated surface for
// reviewing stored orders.
package admin

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Service authenticates the single configured admin account.
type Service struct {
	email        string
	passwordHash []byte
}

// NewService hashes the configured password once at startup so the
// plaintext never sticks around.
func NewService(email, password string) (*Service, error) {
	if email == "" || password == "" {
		return nil, errors.New("admin credentials are not configured")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Service{email: email, passwordHash: hash}, nil
}

func (s *Service) Authenticate(email, password string) error {
	if email != s.email {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
