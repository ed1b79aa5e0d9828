package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tripdesk/tripdesk-go/internal/config"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// permissions maps each role to its allowed operations.
var permissions = map[Role]map[string]bool{
	RoleAdmin:  {"view": true, "add": true, "edit": true, "delete": true},
	RoleEditor: {"view": true, "add": true, "edit": true},
	RoleViewer: {"view": true},
}

type contextKey string

const (
	userKey contextKey = "user"
	roleKey contextKey = "role"
)

// BasicAuth returns middleware that authenticates requests against the
// configured users via HTTP Basic auth. Secrets are bcrypt hashes when
// prefixed $2, plaintext otherwise (compared in constant time).
func BasicAuth(users []config.User, realm string) func(http.Handler) http.Handler {
	byName := make(map[string]config.User, len(users))
	for _, u := range users {
		byName[u.Name] = u
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name, pass, ok := r.BasicAuth()
			if !ok {
				challenge(w, realm)
				return
			}
			u, found := byName[name]
			if !found || !verifySecret(u.Secret, pass) {
				challenge(w, realm)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, u.Name)
			ctx = context.WithValue(ctx, roleKey, Role(u.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verifySecret(stored, given string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func challenge(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
	writeJSONError(w, http.StatusUnauthorized, "authentication required")
}

// Require returns middleware allowing only roles holding the given
// permission (view, add, edit, delete).
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok || !HasPermission(role, perm) {
				writeJSONError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RoleFromContext extracts the authenticated role from the request context.
func RoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(roleKey).(Role)
	return role, ok
}

// UserFromContext extracts the authenticated username from the request context.
func UserFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(userKey).(string)
	return name, ok
}

func HasPermission(role Role, perm string) bool {
	return permissions[role][perm]
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
