package mwAuth

import (
	"context"
	"dojo-service/pkg/response"
	"dojo-service/pkg/sl"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleMember     = "member"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type User struct {
	ID   int64
	Role string
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok
}

// IssueToken signs an HS256 access token for u.
func IssueToken(secret []byte, u User, ttl time.Duration) (string, error) {
	const op = "mwAuth.IssueToken"

	now := time.Now()
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// ParseToken verifies the signature and expiry and returns the caller.
func ParseToken(secret []byte, raw string) (User, error) {
	const op = "mwAuth.ParseToken"

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return User{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return User{}, fmt.Errorf("%s: %w: bad subject", op, ErrInvalidToken)
	}

	return User{ID: id, Role: claims.Role}, nil
}

// New authenticates every request with a bearer token.
func New(log *slog.Logger, secret []byte) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		log := log.With(
			slog.String("component", "middleware/auth"),
		)

		fn := func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "access token required"))
				return
			}

			user, err := ParseToken(secret, raw)
			if err != nil {
				log.Warn("token rejected",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					sl.Err(err),
				)
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), ErrInvalidToken.Error()))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		}

		return http.HandlerFunc(fn)
	}
}

// RequireRole lets through only callers holding one of roles.
func RequireRole(roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFrom(r.Context())
			if !ok || !slices.Contains(roles, user.Role) {
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error(string(response.FORBIDDEN), "insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}
