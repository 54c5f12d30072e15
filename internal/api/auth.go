package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexivanou/weatherquery-api/internal/apperror"
	"github.com/alexivanou/weatherquery-api/internal/config"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

type contextKey string

const subjectKey contextKey = "subject"

// Claims are the claims carried by API tokens
type Claims struct {
	jwt.RegisteredClaims
}

// TokenAuth issues and validates HS256 bearer tokens
type TokenAuth struct {
	secret []byte
	issuer string
}

// NewTokenAuth creates a TokenAuth from configuration
func NewTokenAuth(cfg config.AuthConfig) *TokenAuth {
	return &TokenAuth{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

// GenerateToken signs a token for subject valid for ttl
func (a *TokenAuth) GenerateToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken parses and verifies a signed token
func (a *TokenAuth) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return nil, errors.New("unexpected issuer")
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token.
func (a *TokenAuth) Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, logger, apperror.Newf(apperror.Unauthorized, "authorization header format must be Bearer {token}"))
				return
			}

			claims, err := a.ValidateToken(tokenString)
			if err != nil {
				logger.Debug("Rejected token", zap.Error(err))
				writeError(w, logger, apperror.Newf(apperror.Unauthorized, "invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext returns the authenticated subject, if any
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey).(string)
	return subject
}

func extractToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
