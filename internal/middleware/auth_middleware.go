package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dwelly/negotiation-service/internal/utils"
)

type contextKey string

const ContextKeyUserID = contextKey("userID")

// TokenIssuer identifies the auth service that mints access tokens.
const TokenIssuer = "Dwelly"

// AuthMiddleware validates the bearer token and places the caller's
// user id into the request context. Services never read identity from
// context themselves; controllers pass it down explicitly.
func AuthMiddleware(pub *rsa.PublicKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := extractAccessToken(r)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil,
				)
				return
			}

			sub, vErr := validateToken(tokenStr, pub)
			if vErr != nil {
				if errors.Is(vErr, jwt.ErrTokenExpired) {
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Token expired", nil, vErr,
					)
					return
				}
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid token", nil, vErr,
				)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractAccessToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing Authorization header")
	}
	return strings.TrimPrefix(h, "Bearer "), nil
}

func validateToken(tokenString string, publicKey *rsa.PublicKey) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return publicKey, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return "", errors.New("missing expiration claim")
	}
	if time.Unix(int64(exp), 0).Before(time.Now()) {
		return "", jwt.ErrTokenExpired
	}

	iss, ok := claims["iss"].(string)
	if !ok || iss != TokenIssuer {
		return "", errors.New("invalid token issuer")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing subject claim")
	}
	return sub, nil
}

// UserIDFromContext parses the authenticated caller's id. The second
// result is false when the middleware did not run or the subject is not
// a UUID; controllers treat both as unauthorized.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v := ctx.Value(ContextKeyUserID)
	if v == nil {
		return uuid.Nil, false
	}
	s, ok := v.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
