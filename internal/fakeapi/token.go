package fakeapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims are the JWT claims issued by the fake server.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

var errNoToken = errors.New("no bearer token")

func (s *Server) buildJWTString(userID string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(s.now().Add(s.tokenTTL)),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	s.mu.Lock()
	secret := s.signingKey
	s.mu.Unlock()

	return token.SignedString(secret)
}

func (s *Server) userIDFromRequest(request *http.Request) (string, error) {
	header := request.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return "", errNoToken
	}

	s.mu.Lock()
	secret := s.signingKey
	s.mu.Unlock()

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if claims.ExpiresAt != nil && !s.now().Before(claims.ExpiresAt.Time) {
		return "", errors.New("token expired")
	}

	return claims.UserID, nil
}

// RotateSigningKey invalidates every token issued so far.
func (s *Server) RotateSigningKey() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.signingKey = []byte(fmt.Sprintf("fakeapi-%d", time.Now().UnixNano()))
}
