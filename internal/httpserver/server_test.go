package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/doctrack/doctrack/internal/application/doctorate"
	"github.com/doctrack/doctrack/internal/config"
	"github.com/doctrack/doctrack/internal/domain/doctorate/listing"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	"github.com/doctrack/doctrack/internal/httpserver/dto"
	"github.com/doctrack/doctrack/internal/infrastructure/persistence"
)

const initializeBody = `{
	"student": {"person_id": "student-1", "noma": "12345678", "first_name": "Jane", "last_name": "Doe", "email": "jane@uni.test", "language": "en"},
	"training": {"id": "t-1", "code": "sc3dp", "acronym": "SC3DP", "title": "Doctorate in sciences", "cdd": "CDA", "academic_year": 2021, "admission_type": "ADMISSION"}
}`

func newTestServer(t *testing.T, cfg config.ServerConfig) *Server {
	t.Helper()
	backend := persistence.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })
	clock := ports.FixedClock{At: time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := app.NewService(persistence.NewUnitOfWorkFactory(backend, clock), clock, app.Institution{
		ReferencePrefix: "D",
		ADREManagerIDs:  []string{"adre-1"},
	})
	if cfg.Address == "" {
		cfg.Address = ":0"
	}
	return NewServer(ServerDeps{Config: cfg, Service: svc, Version: "1.2.3"})
}

func do(t *testing.T, s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

var adre = map[string]string{"X-Person-ID": "adre-1", "X-Grants": "ADRE_MANAGER"}

func initialize(t *testing.T, s *Server) dto.CommandResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/v1/doctorates", initializeBody, adre)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp dto.CommandResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestNewServer(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{RateLimitPerMinute: 60})

	if server.wsHub == nil {
		t.Error("WebSocket hub should be initialized")
	}
	if server.router == nil {
		t.Error("Router should be initialized")
	}
	if server.rateLimiter == nil {
		t.Error("Rate limiter should be initialized when a limit is set")
	}
	if server.Address() != ":0" {
		t.Errorf("Address = %q", server.Address())
	}
}

func TestHealthEndpoints(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{APIKey: "secret"})

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := do(t, server, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, rec.Code)
			continue
		}
		var response map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response["status"] != "healthy" || response["version"] != "1.2.3" {
			t.Errorf("%s: unexpected body %v", path, response)
		}
	}
}

func TestAPIKeyRequired(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{APIKey: "secret"})

	rec := do(t, server, http.MethodGet, "/api/v1/doctorates", "", adre)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without key: expected 401, got %d", rec.Code)
	}

	withKey := map[string]string{"X-Person-ID": "adre-1", "X-Grants": "ADRE_MANAGER", "X-API-Key": "secret"}
	rec = do(t, server, http.MethodGet, "/api/v1/doctorates", "", withKey)
	if rec.Code != http.StatusOK {
		t.Errorf("with key: expected 200, got %d", rec.Code)
	}

	bearer := map[string]string{"X-Person-ID": "adre-1", "Authorization": "Bearer secret"}
	rec = do(t, server, http.MethodGet, "/api/v1/doctorates", "", bearer)
	if rec.Code != http.StatusOK {
		t.Errorf("with bearer: expected 200, got %d", rec.Code)
	}
}

func TestCallerRequired(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{})

	rec := do(t, server, http.MethodGet, "/api/v1/doctorates", "", nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without identity, got %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{})

	rec := do(t, server, http.MethodGet, "/health", "", nil)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestInitializeAndRead(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{})

	created := initialize(t, server)
	assert.NotEmpty(t, created.DoctorateID)
	assert.Equal(t, "ADMITTED", created.Status)
	assert.Equal(t, app.NameInitializeDoctorate, created.Action)

	rec := do(t, server, http.MethodGet, "/api/v1/doctorates/"+created.DoctorateID, "", adre)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var doc map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))
	assert.Equal(t, created.DoctorateID, doc["id"])
	assert.Equal(t, "ADMITTED", doc["status"])

	rec = do(t, server, http.MethodGet, "/api/v1/doctorates?student_name=doe&sort_by=reference", "", adre)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list listing.PaginatedList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, []string{created.DoctorateID}, list.IDs)

	rec = do(t, server, http.MethodGet, "/api/v1/doctorates/"+created.DoctorateID+"/confirmations", "", adre)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "["), rec.Body.String())
}

func TestInitializeRequiresADREManager(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{})

	rec := do(t, server, http.MethodPost, "/api/v1/doctorates", initializeBody, map[string]string{"X-Person-ID": "student-1"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExecute_BusinessErrorsAreListed(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{})
	id := initialize(t, server).DoctorateID

	rec := do(t, server, http.MethodPost, "/api/v1/doctorates/"+id+"/actions/send_message_to_student", `{"message": {}}`, adre)

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	var resp dto.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	codes := make([]string, len(resp.Details))
	for i, d := range resp.Details {
		codes[i] = d.StatusCode
	}
	assert.ElementsMatch(t, []string{"PARCOURS-DOCTORAL-27", "PARCOURS-DOCTORAL-28"}, codes)
}

func TestExecute_SendMessage(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{})
	id := initialize(t, server).DoctorateID

	body := `{"message": {"subject": "Welcome", "body": "Welcome to the doctoral school"}}`
	rec := do(t, server, http.MethodPost, "/api/v1/doctorates/"+id+"/actions/send_message_to_student", body, adre)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp dto.CommandResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, id, resp.DoctorateID)
	assert.Equal(t, "send_message_to_student", resp.Action)
}

func TestExecute_UnknownAction(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{})
	id := initialize(t, server).DoctorateID

	rec := do(t, server, http.MethodPost, "/api/v1/doctorates/"+id+"/actions/teleport", `{}`, adre)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecute_MalformedBody(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{})
	id := initialize(t, server).DoctorateID

	rec := do(t, server, http.MethodPost, "/api/v1/doctorates/"+id+"/actions/send_message_to_student", `{"message":`, adre)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsCountCommands(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{APIKey: "secret"})
	auth := map[string]string{"X-API-Key": "secret"}
	for k, v := range adre {
		auth[k] = v
	}
	created := do(t, server, http.MethodPost, "/api/v1/doctorates", initializeBody, auth)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	var resp dto.CommandResponse
	require.NoError(t, json.NewDecoder(created.Body).Decode(&resp))
	do(t, server, http.MethodPost, "/api/v1/doctorates/"+resp.DoctorateID+"/actions/send_message_to_student", `{"message": {}}`, auth)

	rec := do(t, server, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `doctrack_commands_total{action="initialize_doctorate",outcome="ok"} 1`)
	assert.Contains(t, body, `doctrack_commands_total{action="send_message_to_student",outcome="rejected"} 1`)
}

func TestUnknownDoctorate(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{})

	rec := do(t, server, http.MethodGet, "/api/v1/doctorates/missing", "", adre)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActions(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{})

	rec := do(t, server, http.MethodGet, "/api/v1/doctorates/actions", "", adre)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ActionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, app.CommandNames(), resp.Actions)
}

func TestAllowedActions(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{})
	id := initialize(t, server).DoctorateID

	rec := do(t, server, http.MethodGet, "/api/v1/doctorates/"+id+"/allowed-actions", "", adre)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp dto.ActionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Actions, "send_message_to_student")
}

func TestListRejectsBadFilter(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{})

	for _, query := range []string{"sort_by=color", "page=-1", "statuses=NOPE", "date_start=yesterday", "date_type=BIRTH"} {
		rec := do(t, server, http.MethodGet, "/api/v1/doctorates?"+query, "", adre)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", query, rec.Code)
		}
	}
}

func TestRateLimit(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{RateLimitPerMinute: 1})
	t.Cleanup(func() { _ = server.rateLimiter.Close() })

	first := do(t, server, http.MethodGet, "/api/v1/doctorates", "", adre)
	second := do(t, server, http.MethodGet, "/api/v1/doctorates", "", adre)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
}

func TestCORS(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{CORSOrigins: []string{"https://portal.uni.test"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/doctorates", nil)
	req.Header.Set("Origin", "https://portal.uni.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, "https://portal.uni.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestShutdown(t *testing.T) {
	server := newTestServer(t, config.ServerConfig{RateLimitPerMinute: 10})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown returned error: %v", err)
	}
}
