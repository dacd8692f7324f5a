package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"blogapi/internal/domain"
)

// BcryptCost matches the salt rounds used for existing credentials.
const BcryptCost = 10

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash. The
// validator counts characters, so multi-byte passwords can still reach it.
var ErrPasswordTooLong = domain.NewValidationError("password can't exceed 72 bytes")

// BcryptHasher is the credential store's one-way password transform.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = BcryptCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
