// Package auth turns a bearer JWT into an explicit Actor carried on
// the request context. Workflow operations receive the Actor as an
// argument; nothing reads ambient session state.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"reserva-service/internal/models"
	"reserva-service/pkg/response"
	"reserva-service/pkg/sl"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt"
)

type ctxKey struct{}

// ParseToken validates an HS256 token and extracts the Actor from its
// "sub" and "role" claims.
func ParseToken(tokenString, secret string) (models.Actor, error) {
	const op = "auth.ParseToken"

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return models.Actor{}, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return models.Actor{}, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	role := models.RoleUser
	if r, _ := claims["role"].(string); r == string(models.RoleAdmin) {
		role = models.RoleAdmin
	}

	return models.Actor{UserID: sub, Role: role}, nil
}

// Token signs an HS256 token for the given actor. Used by tooling and
// tests; the production tokens come from the auth provider.
func Token(actor models.Actor, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  actor.UserID,
		"role": string(actor.Role),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Required rejects requests without a valid bearer credential.
func Required(log *slog.Logger, secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "missing bearer credential"))
				return
			}

			actor, err := ParseToken(strings.TrimPrefix(header, "Bearer "), secret)
			if err != nil {
				log.Warn("Rejected bearer token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "invalid bearer credential"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		}

		return http.HandlerFunc(fn)
	}
}

func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFromContext returns the authenticated caller. The zero Actor is
// returned when the request carried no credential.
func ActorFromContext(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(ctxKey{}).(models.Actor)
	return actor
}
