package auth

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{UserID: "u1", TenantID: "t1", RoleID: "r1", RoleName: RoleHR}

	token, err := GenerateToken(secret, claims, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if parsed.UserID != claims.UserID || parsed.TenantID != claims.TenantID || parsed.RoleID != claims.RoleID || parsed.RoleName != claims.RoleName {
		t.Fatalf("claims mismatch: %+v", parsed)
	}
}

func TestSessionFromTokenKeepsRawToken(t *testing.T) {
	token, err := GenerateToken("s", Claims{UserID: "u1", TenantID: "t1", RoleName: RoleHR}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	session, err := SessionFromToken("s", token)
	if err != nil {
		t.Fatalf("session error: %v", err)
	}
	if session.Token != token || session.UserID != "u1" || session.TenantID != "t1" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if !session.Can(PermEmployeesWrite) {
		t.Fatal("expected HR to write employees")
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("a", Claims{UserID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("b", token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("a", Claims{UserID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("a", token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestHasPermission(t *testing.T) {
	if HasPermission(RoleEmployee, PermEmployeesWrite) {
		t.Fatal("employee must not write employees")
	}
	if !HasPermission(RoleSystemAdmin, PermDocumentsDelete) {
		t.Fatal("system admin should delete documents")
	}
	if HasPermission("unknown", PermEmployeesRead) {
		t.Fatal("unknown role has no permissions")
	}
}
