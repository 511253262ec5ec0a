package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the decoded body of a session token: subject is the user id,
// Admin mirrors the user's admin flag at issuance time. Tokens are stateless,
// so a later admin-flag change does not affect tokens already in the wild.
type Claims struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}

type Service struct {
	Secret []byte
	TTL    time.Duration
}

func New(secret []byte, ttl time.Duration) *Service {
	return &Service{Secret: secret, TTL: ttl}
}

func (s *Service) Issue(userID uint, username string, admin bool) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		Admin:    admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
			ID:        uuid.NewString(),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.Secret)
}

func (s *Service) Parse(raw string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// UserID parses the subject back into the numeric user id.
func (c *Claims) UserID() (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Subject, &id); err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}
