package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainerrors "atrium/contexts/identity-access/account-service/domain/errors"
)

const DefaultTTL = 15 * time.Minute

// Codec implements ports.TokenCodec with HS256-signed JWTs. The subject
// claim carries the user id; expiry is fixed at TTL from issuance.
type Codec struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

func (c Codec) Issue(userID string) (string, error) {
	if len(c.Secret) == 0 {
		return "", errors.New("token codec has no signing secret")
	}
	now := c.now()
	claims := jwt.RegisteredClaims{
		Issuer:    c.Issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl())),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
}

func (c Codec) Subject(token string) (string, error) {
	if len(c.Secret) == 0 {
		return "", errors.New("token codec has no signing secret")
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.Secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domainerrors.ErrTokenExpired
		}
		return "", domainerrors.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", domainerrors.ErrInvalidToken
	}
	return claims.Subject, nil
}

func (c Codec) ttl() time.Duration {
	if c.TTL <= 0 {
		return DefaultTTL
	}
	return c.TTL
}

func (c Codec) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}
