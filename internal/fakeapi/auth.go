package fakeapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

func (s *Server) issueToken(userID int, ttl time.Duration) (string, error) {
	now := s.now()
	c := &claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// requireAuth validates the bearer token and stores the user on the context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if header == "" {
			respondWithError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}
		if !ok || scheme != "Bearer" || token == "" {
			respondWithError(w, http.StatusUnauthorized, "Invalid Authorization header format")
			return
		}

		c := &claims{}
		parsed, err := jwt.ParseWithClaims(token, c, func(*jwt.Token) (any, error) {
			return s.secret, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(s.now),
		)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				respondWithError(w, http.StatusUnauthorized, "Token has expired")
			} else {
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
			}
			return
		}
		if !parsed.Valid {
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		s.mu.Lock()
		u, found := s.usersByID[c.UserID]
		s.mu.Unlock()
		if !found {
			respondWithError(w, http.StatusUnauthorized, "Unknown user")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

func userFrom(r *http.Request) *user {
	u, _ := r.Context().Value(ctxKey{}).(*user)
	return u
}
