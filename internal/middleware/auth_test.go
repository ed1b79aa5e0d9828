package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tripdesk/tripdesk-go/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func testUsers(t *testing.T) []config.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return []config.User{
		{Name: "alice", Secret: string(hash), Role: "admin"},
		{Name: "bob", Secret: "plain-pass", Role: "viewer"},
	}
}

func TestBasicAuthRejectsMissingCredentials(t *testing.T) {
	h := BasicAuth(testUsers(t), "Trip")(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/itinerary", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != `Basic realm="Trip"` {
		t.Fatalf("unexpected challenge header %q", got)
	}
}

func TestBasicAuthBcryptAndPlaintextSecrets(t *testing.T) {
	h := BasicAuth(testUsers(t), "Trip")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("alice", "s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bcrypt user: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("bob", "plain-pass")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("plaintext user: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("alice", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rec.Code)
	}
}

func TestRequireBlocksViewerFromMutations(t *testing.T) {
	chain := BasicAuth(testUsers(t), "Trip")(Require("edit")(okHandler()))

	req := httptest.NewRequest(http.MethodPut, "/api/itinerary/update", nil)
	req.SetBasicAuth("bob", "plain-pass")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer edit: expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/itinerary/update", nil)
	req.SetBasicAuth("alice", "s3cret")
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin edit: expected 200, got %d", rec.Code)
	}
}

func TestHasPermission(t *testing.T) {
	cases := []struct {
		role Role
		perm string
		want bool
	}{
		{RoleAdmin, "delete", true},
		{RoleEditor, "edit", true},
		{RoleEditor, "delete", false},
		{RoleViewer, "view", true},
		{RoleViewer, "add", false},
		{Role("unknown"), "view", false},
	}
	for _, c := range cases {
		if got := HasPermission(c.role, c.perm); got != c.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", c.role, c.perm, got, c.want)
		}
	}
}
