package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/platform/cache"
	"hrconsole/internal/requestctx"
)

func sessionContext(userID string) context.Context {
	return requestctx.WithSession(context.Background(), auth.Session{
		TenantID: "tenant-1",
		UserID:   userID,
		RoleName: auth.RoleHR,
	})
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Fatal("expected request id in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestRequestIDKeepsIncomingHeader(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetRequestID(r.Context()); got != "req-42" {
			t.Fatalf("expected incoming request id, got %q", got)
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRateLimitUsesUserKeyBeforeIPFallback(t *testing.T) {
	limited := RateLimit(1, time.Minute)(http.HandlerFunc(noContent))

	first := httptest.NewRequest(http.MethodPost, "/api/v1/forms/f1/submit", nil).WithContext(sessionContext("user-1"))
	first.RemoteAddr = "198.51.100.11:2222"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/forms/f1/submit", nil).WithContext(sessionContext("user-1"))
	second.RemoteAddr = "198.51.100.12:3333"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by user key, got %d", secondRec.Code)
	}
	if secondRec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	var limitedKeys []string
	limited := RateLimit(1, time.Minute, WithOnLimited(func(key string) {
		limitedKeys = append(limitedKeys, key)
	}))(http.HandlerFunc(noContent))

	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/forms", nil)
		req.RemoteAddr = "203.0.113.10:" + itoa(4000+i)
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
	if len(limitedKeys) != 1 || limitedKeys[0] != "203.0.113.10" {
		t.Fatalf("expected ip key to be reported, got %v", limitedKeys)
	}
}

func TestSensitiveMutationRateLimitOnlyScopesSubmitsAndDeletes(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(http.HandlerFunc(noContent))

	cases := []struct {
		method string
		path   string
		want   []int
	}{
		{http.MethodPatch, "/api/v1/forms/f1/fields", []int{http.StatusNoContent, http.StatusNoContent}},
		{http.MethodPost, "/api/v1/forms/f1/submit", []int{http.StatusNoContent, http.StatusTooManyRequests}},
	}
	for _, tc := range cases {
		for i, want := range tc.want {
			req := httptest.NewRequest(tc.method, tc.path, nil).WithContext(sessionContext("user-" + tc.method))
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, req)
			if rec.Code != want {
				t.Fatalf("%s %s request %d: expected %d, got %d", tc.method, tc.path, i, want, rec.Code)
			}
		}
	}

	if scope := sensitiveRateScope(httptest.NewRequest(http.MethodDelete, "/api/v1/employees/9/documents/100", nil)); scope != sensitiveScopeActor {
		t.Fatalf("expected document delete to be sensitive, got %q", scope)
	}
	if scope := sensitiveRateScope(httptest.NewRequest(http.MethodGet, "/api/v1/forms/f1", nil)); scope != sensitiveScopeNone {
		t.Fatalf("expected reads to be unscoped, got %q", scope)
	}
}

func TestAuthAttachesSession(t *testing.T) {
	token, err := auth.GenerateToken("secret", auth.Claims{UserID: "u-1", TenantID: "t-1", RoleName: auth.RoleHR}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	handler := Auth("secret")(RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := GetSession(r.Context())
		if !ok || session.UserID != "u-1" || session.Token != token {
			t.Fatalf("unexpected session %+v", session)
		}
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forms", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected authenticated request to pass, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/forms", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected invalid token to be rejected, got %d", rec.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	handler := RequirePermission(auth.PermEmployeesWrite)(http.HandlerFunc(noContent))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	ctx := requestctx.WithSession(context.Background(), auth.Session{UserID: "u-2", RoleName: auth.RoleEmployee})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee role, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(sessionContext("u-3")))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected hr role to pass, got %d", rec.Code)
	}
}

func TestBodyLimitAllowsLargerUploads(t *testing.T) {
	handler := BodyLimit(8, 64)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected json body to be capped, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32)))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected multipart body within upload limit, got %d", rec.Code)
	}
}

type recordedStatus struct {
	statuses []int
}

func (r *recordedStatus) Record(status int, _ time.Duration) {
	r.statuses = append(r.statuses, status)
}

func TestLoggerRecordsStatus(t *testing.T) {
	observer := &recordedStatus{}
	handler := Logger(observer)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/forms", nil))
	if len(observer.statuses) != 1 || observer.statuses[0] != http.StatusBadGateway {
		t.Fatalf("expected recorded 502, got %v", observer.statuses)
	}
}

func TestRecovererReturnsEnvelope(t *testing.T) {
	handler := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error.Code != "internal_error" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestSecureHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecureHeaders(true)(http.HandlerFunc(noContent)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected nosniff")
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected HSTS in production")
	}
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "blob:") {
		t.Fatal("expected blob previews to be allowed")
	}
}

func TestRequestHashDeterministic(t *testing.T) {
	hash1 := RequestHash([]byte("payload"))
	hash2 := RequestHash([]byte("payload"))
	hash3 := RequestHash([]byte("other"))

	if hash1 != hash2 {
		t.Fatal("expected deterministic hash")
	}
	if hash1 == hash3 {
		t.Fatal("expected different hash for different payload")
	}
}

func TestIdempotencyStoreReplaysAndDetectsConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(cache.NewMemory(), time.Hour)
	hash := RequestHash([]byte("form-1"))

	if _, ok, err := store.Check(ctx, "t-1", "u-1", "submit", "key-1", hash); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Save(ctx, "t-1", "u-1", "submit", "key-1", hash, json.RawMessage(`{"success":true}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	stored, ok, err := store.Check(ctx, "t-1", "u-1", "submit", "key-1", hash)
	if err != nil || !ok || string(stored) != `{"success":true}` {
		t.Fatalf("expected replay, got %s ok=%v err=%v", stored, ok, err)
	}
	if _, _, err := store.Check(ctx, "t-1", "u-1", "submit", "key-1", RequestHash([]byte("form-2"))); err != ErrIdempotencyConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, ok, _ := store.Check(ctx, "t-1", "u-2", "submit", "key-1", hash); ok {
		t.Fatal("keys must be scoped per user")
	}
}
