package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
)

func TestParseGrants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []domain.Grant
	}{
		{"empty", "", nil},
		{"single", "ADRE_MANAGER", []domain.Grant{{Role: domain.RoleADREManager}}},
		{
			"scoped and lower case",
			"cdd_manager:CDA, SCEB_MANAGER",
			[]domain.Grant{{Role: domain.RoleCDDManager, Scope: "CDA"}, {Role: domain.RoleSCEBManager}},
		},
		{"blank entries", " , ADRI_MANAGER ,", []domain.Grant{{Role: domain.RoleADRIManager}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseGrants(tt.raw))
		})
	}
}

func TestCaller(t *testing.T) {
	var got domain.Caller
	handler := Caller()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetCaller(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderPersonID, "cdd-1")
	req.Header.Set(HeaderGrants, "CDD_MANAGER:CDA")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cdd-1", got.PersonID)
	assert.Equal(t, []domain.Grant{{Role: domain.RoleCDDManager, Scope: "CDA"}}, got.Grants)
}

func TestAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	tests := []struct {
		name   string
		key    string
		header map[string]string
		want   int
	}{
		{"no key configured", "", nil, http.StatusOK},
		{"missing", "secret", nil, http.StatusUnauthorized},
		{"wrong", "secret", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header", "secret", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer", "secret", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			Auth(tt.key)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRateKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "addr:10.0.0.1:1234", rateKey(req))

	req.Header.Set(HeaderPersonID, "student-1")
	assert.Equal(t, "person:student-1", rateKey(req))
}

func TestPerMinute(t *testing.T) {
	assert.Equal(t, 1, PerMinute(5).Burst)
	assert.Equal(t, 60, PerMinute(600).Burst)
}
