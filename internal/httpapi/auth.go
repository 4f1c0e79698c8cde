package httpapi

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

var errInvalidToken = errors.New("invalid or expired token")

// mintToken issues a signed HS256 bearer token for an administrator.
func mintToken(secret []byte, admin store.AdminRecord, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":       admin.ID,
		"username":  admin.Username,
		"superuser": admin.Superuser,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parseToken validates a bearer token and returns the administrator ID it
// was minted for. The admin record itself is always re-read from the
// store, so revoked privileges take effect immediately.
func parseToken(secret []byte, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errInvalidToken
	}
	return sub, nil
}
