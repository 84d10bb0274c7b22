// Package auth issues and parses the signed session tokens handed out on
// login.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard claims plus the logged-in username. The
// registered ID claim holds the id of the login session that issued the
// token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

func GenerateToken(username, sessionID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Username: username,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSessionFromToken validates the signature and expiry of tokenString and
// returns the username and session id it names. Any failure yields
// common.ErrInvalidToken.
func GetSessionFromToken(tokenString string, secretKey []byte) (username, sessionID string, err error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", errors.Join(common.ErrInvalidToken, jwt.ErrTokenExpired)
		}
		return "", "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Username == "" || claims.ID == "" {
		return "", "", common.ErrInvalidToken
	}

	return claims.Username, claims.ID, nil
}
