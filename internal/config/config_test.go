package config

import "testing"

func TestParseUsers(t *testing.T) {
	users := parseUsers("alice:s3cret:admin, bob:hunter2:editor ,carol:pw")
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	if users[0].Name != "alice" || users[0].Role != "admin" {
		t.Errorf("unexpected first user: %+v", users[0])
	}
	if users[1].Name != "bob" || users[1].Role != "editor" {
		t.Errorf("unexpected second user: %+v", users[1])
	}
	if users[2].Role != "viewer" {
		t.Errorf("missing role should default to viewer, got %q", users[2].Role)
	}
}

func TestParseUsersSkipsMalformed(t *testing.T) {
	users := parseUsers("nopassword,:orphan:admin,ok:pw:viewer")
	if len(users) != 1 || users[0].Name != "ok" {
		t.Fatalf("expected only the well-formed entry, got %+v", users)
	}
}

func TestParseUsersEmpty(t *testing.T) {
	if users := parseUsers(""); users != nil {
		t.Fatalf("expected nil, got %+v", users)
	}
}

func TestLoadSingleUserFallback(t *testing.T) {
	t.Setenv("AUTH_USERS", "")
	t.Setenv("BASIC_AUTH_USER", "solo")
	t.Setenv("BASIC_AUTH_PASS", "pw")
	t.Setenv("ENV", "development")

	cfg := Load()
	if len(cfg.Users) != 1 {
		t.Fatalf("expected single fallback user, got %d", len(cfg.Users))
	}
	if cfg.Users[0].Name != "solo" || cfg.Users[0].Role != "admin" {
		t.Errorf("fallback user should be admin: %+v", cfg.Users[0])
	}
}
