/*
auth.go - Administrator authentication

PURPOSE:
  Credential check against the store (bcrypt hashes) issuing short-lived
  JWT session tokens, plus the middleware guarding admin routes. The
  acting admin identity always comes from the verified token in the
  request context, never from a compile-time constant.
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vanline/transport/store/sqlite"
)

// ErrInvalidCredentials is returned for any failed login. Deliberately
// indistinguishable between unknown email and wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

type contextKey string

const adminIDKey contextKey = "adminID"

// AdminID returns the authenticated admin id from the request context.
func AdminID(ctx context.Context) string {
	id, _ := ctx.Value(adminIDKey).(string)
	return id
}

// Authenticator verifies admin credentials and session tokens.
type Authenticator struct {
	Store  *sqlite.Store
	Secret []byte
	TTL    time.Duration
}

func NewAuthenticator(store *sqlite.Store, secret string) *Authenticator {
	return &Authenticator{
		Store:  store,
		Secret: []byte(secret),
		TTL:    24 * time.Hour,
	}
}

// Login checks the password and returns a signed session token.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, *sqlite.Admin, error) {
	admin, err := a.Store.FindAdminByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   admin.ID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.TTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString(a.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, admin, nil
}

// Middleware rejects requests without a valid Bearer token and stores the
// admin id in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			writeError(w, http.StatusUnauthorized, "Missing authorization token", nil)
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return a.Secret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		ctx := context.WithValue(r.Context(), adminIDKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// EnsureAdmin seeds an administrator account if the email is not yet
// registered. Used at startup so a fresh deployment has a login.
func (a *Authenticator) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := a.Store.FindAdminByEmail(ctx, email); err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return a.Store.CreateAdmin(ctx, &sqlite.Admin{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	})
}
