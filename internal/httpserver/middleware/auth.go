// Package middleware provides HTTP middleware for the doctorate API.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// CallerContextKey is the context key for the calling identity.
	CallerContextKey contextKey = "caller"
)

// Identity headers set by the gateway in front of the API.
const (
	HeaderPersonID = "X-Person-ID"
	// HeaderGrants lists institution roles, comma separated. A CDD manager
	// grant may be scoped with a colon: "CDD_MANAGER:CDA".
	HeaderGrants = "X-Grants"
)

// Auth rejects requests without the shared API key. An empty key accepts
// every request.
func Auth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey != "" && !validAPIKey(r, apiKey) {
				http.Error(w, "Unauthorized: invalid or missing API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// validAPIKey checks X-API-Key first, then a bearer token.
func validAPIKey(r *http.Request, want string) bool {
	key := r.Header.Get("X-API-Key")
	if key == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			key = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(want)) == 1
}

// Caller reads the calling identity from the identity headers. Requests
// without a person id are rejected.
func Caller() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := callerFromHeaders(r.Header)
			if !ok {
				http.Error(w, "Unauthorized: missing "+HeaderPersonID+" header", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), CallerContextKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func callerFromHeaders(h http.Header) (domain.Caller, bool) {
	personID := strings.TrimSpace(h.Get(HeaderPersonID))
	if personID == "" {
		return domain.Caller{}, false
	}
	return domain.Caller{PersonID: personID, Grants: ParseGrants(h.Get(HeaderGrants))}, true
}

// ParseGrants parses a grants header such as "ADRE_MANAGER, CDD_MANAGER:CDA".
// Role names are case-insensitive; empty entries are skipped.
func ParseGrants(raw string) []domain.Grant {
	var grants []domain.Grant
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		role, scope, _ := strings.Cut(part, ":")
		grants = append(grants, domain.Grant{
			Role:  domain.Role(strings.ToUpper(strings.TrimSpace(role))),
			Scope: strings.TrimSpace(scope),
		})
	}
	return grants
}

// GetCaller retrieves the caller from the request context.
func GetCaller(r *http.Request) (domain.Caller, bool) {
	caller, ok := r.Context().Value(CallerContextKey).(domain.Caller)
	return caller, ok
}
