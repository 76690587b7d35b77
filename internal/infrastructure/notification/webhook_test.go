package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

func TestEmailNotifier_PostsSignedPayload(t *testing.T) {
	var (
		mu        sync.Mutex
		body      []byte
		signature string
		event     string
		custom    string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
			http.Error(w, "read error", http.StatusInternalServerError)
			return
		}
		signature = r.Header.Get(HeaderSignature)
		event = r.Header.Get(HeaderEvent)
		custom = r.Header.Get("X-Tenant")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	notifier := NewEmailNotifier(Endpoint{
		URL:     server.URL,
		Secret:  "s3cret",
		Headers: map[string]string{"X-Tenant": "uni"},
	})

	email := ports.Email{
		To:       []string{"student@uni.test"},
		Subject:  "Jury proposal rejected",
		Plain:    "Reason: incomplete",
		Language: "en",
	}
	if err := notifier.Send(context.Background(), email); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if event != EventEmail {
		t.Errorf("expected event %q, got %q", EventEmail, event)
	}
	if custom != "uni" {
		t.Errorf("expected custom header to be forwarded, got %q", custom)
	}
	if !VerifySignature(body, signature, "s3cret") {
		t.Error("signature does not match the body")
	}

	var payload struct {
		Event string      `json:"event"`
		Data  ports.Email `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if payload.Data.Subject != email.Subject || payload.Data.To[0] != "student@uni.test" {
		t.Errorf("unexpected email in payload: %+v", payload.Data)
	}
}

func TestWebNotifier_UnsignedWithoutSecret(t *testing.T) {
	var signature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get(HeaderSignature)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebNotifier(Endpoint{URL: server.URL})
	err := notifier.Send(context.Background(), ports.WebNotification{PersonID: "p-1", Content: "hello", Language: "en"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if signature != "" {
		t.Errorf("expected no signature, got %q", signature)
	}
}

func TestNotifier_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		kind   dterrors.Kind
	}{
		{http.StatusServiceUnavailable, dterrors.KindDependency},
		{http.StatusTooManyRequests, dterrors.KindDependency},
		{http.StatusBadRequest, dterrors.KindValidation},
		{http.StatusNotFound, dterrors.KindValidation},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			err := NewWebNotifier(Endpoint{URL: server.URL}).Send(context.Background(), ports.WebNotification{PersonID: "p-1"})
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := dterrors.GetKind(err); got != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, got)
			}
		})
	}
}

func TestNotifier_UnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewEmailNotifier(Endpoint{URL: url}).Send(context.Background(), ports.Email{To: []string{"a@b.c"}})
	if !dterrors.IsKind(err, dterrors.KindDependency) {
		t.Errorf("expected a dependency error, got %v", err)
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"notification.web"}`)
	sig := signPayload(payload, "key")

	if !VerifySignature(payload, "sha256="+sig, "key") {
		t.Error("prefixed signature should verify")
	}
	if !VerifySignature(payload, sig, "key") {
		t.Error("bare signature should verify")
	}
	if VerifySignature(payload, sig, "other") {
		t.Error("signature must not verify with another secret")
	}
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	for _, status := range []int{429, 500, 502, 503, 504} {
		if !IsRetryableHTTPStatus(status) {
			t.Errorf("status %d should be retryable", status)
		}
	}
	for _, status := range []int{200, 400, 401, 403, 404, 422} {
		if IsRetryableHTTPStatus(status) {
			t.Errorf("status %d should not be retryable", status)
		}
	}
}
