package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	httpmiddleware "github.com/medibot/intake-platform/internal/http/middleware"
	"github.com/medibot/intake-platform/internal/intake"
	"github.com/medibot/intake-platform/internal/mapping"
	"github.com/medibot/intake-platform/internal/oracle"
	"github.com/medibot/intake-platform/internal/patients"
	"github.com/medibot/intake-platform/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	engine := intake.NewEngine(oracle.Disabled{}, nopDirectory{}, nil, nil, 0, nil, logging.Default())
	handler := intake.NewHandler(engine, intake.NewMemorySessionStore(), mapping.NewMapper(), nil, nil, nil, nil, logging.Default())
	return New(&Config{
		Logger:          logging.Default(),
		IntakeHandler:   handler,
		AdminAuthSecret: "secret",
	})
}

type nopDirectory struct{}

func (nopDirectory) GetByEmail(_ context.Context, _ string) (*patients.Patient, error) {
	return nil, patients.ErrNotFound
}

func (nopDirectory) History(_ context.Context, _ int64) (*patients.History, error) {
	return &patients.History{}, nil
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestAdminRequiresToken(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/appointments", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}
}

func TestAdminAcceptsSignedToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, httpmiddleware.StaffClaims{
		Role: httpmiddleware.RoleClinicAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, req)

	// No appointments handler is mounted in this test, so a valid token
	// falls through to chi's 404 rather than 401.
	if rec.Code == http.StatusUnauthorized {
		t.Fatal("valid token rejected")
	}
}

func TestIntakeStartCreatesSession(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/intake/start", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %d, want 201", rec.Code)
	}
	var body struct {
		Token string `json:"token"`
		Phase string `json:"phase"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Token == "" || body.Phase != string(intake.PhaseCollectingName) {
		t.Fatalf("body = %+v", body)
	}
}

func TestIntakeUnknownTokenIs404(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/intake/no-such-token/message", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", rec.Code)
	}
}
