package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// Webhook headers.
const (
	HeaderEvent     = "X-Doctrack-Event"
	HeaderDelivery  = "X-Doctrack-Delivery"
	HeaderSignature = "X-Doctrack-Signature"
)

// Webhook events.
const (
	EventEmail = "notification.email"
	EventWeb   = "notification.web"
)

// Endpoint describes an HTTP endpoint notifications are posted to.
type Endpoint struct {
	URL     string
	Secret  string
	Timeout time.Duration
	Headers map[string]string
}

func (e Endpoint) timeout() time.Duration {
	if e.Timeout == 0 {
		return 10 * time.Second
	}
	return e.Timeout
}

// Payload is the JSON body posted to an endpoint.
type Payload struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// poster posts signed JSON payloads. It makes a single attempt; retries
// belong to the outbox relay.
type poster struct {
	endpoint Endpoint
	client   *http.Client
	logger   *slog.Logger
	now      func() time.Time
}

func newPoster(endpoint Endpoint, component string) poster {
	return poster{
		endpoint: endpoint,
		client:   &http.Client{},
		logger:   slog.Default().With("component", component),
		now:      time.Now,
	}
}

func (p poster) post(ctx context.Context, event string, data any) error {
	const op = "notification.post"

	body, err := json.Marshal(Payload{Event: event, Timestamp: p.now().UTC(), Data: data})
	if err != nil {
		return dterrors.InternalWrap(err, op, "failed to marshal payload")
	}

	ctx, cancel := context.WithTimeout(ctx, p.endpoint.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return dterrors.ConfigWrap(err, op, "failed to create request")
	}

	delivery := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Doctrack-Notifier/1.0")
	req.Header.Set(HeaderEvent, event)
	req.Header.Set(HeaderDelivery, delivery)
	for key, value := range p.endpoint.Headers {
		req.Header.Set(key, value)
	}
	if p.endpoint.Secret != "" {
		req.Header.Set(HeaderSignature, "sha256="+signPayload(body, p.endpoint.Secret))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return dterrors.DependencyWrap(err, op, "request failed")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= 400 {
		err := fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
		if IsRetryableHTTPStatus(resp.StatusCode) {
			return dterrors.DependencyWrap(err, op, "notification endpoint unavailable")
		}
		return dterrors.Wrap(err, dterrors.KindValidation, op, "notification rejected")
	}

	p.logger.Debug("notification posted", "event", event, "delivery", delivery)
	return nil
}

// EmailNotifier posts rendered emails to a mail gateway.
type EmailNotifier struct {
	poster
}

// NewEmailNotifier creates an email notifier for endpoint.
func NewEmailNotifier(endpoint Endpoint) *EmailNotifier {
	return &EmailNotifier{poster: newPoster(endpoint, "email_notifier")}
}

// Send posts email.
func (n *EmailNotifier) Send(ctx context.Context, email ports.Email) error {
	return n.post(ctx, EventEmail, email)
}

// WebNotifier posts in-app notifications to the web notification service.
type WebNotifier struct {
	poster
}

// NewWebNotifier creates a web notifier for endpoint.
func NewWebNotifier(endpoint Endpoint) *WebNotifier {
	return &WebNotifier{poster: newPoster(endpoint, "web_notifier")}
}

// Send posts the notification.
func (n *WebNotifier) Send(ctx context.Context, notification ports.WebNotification) error {
	return n.post(ctx, EventWeb, notification)
}

// IsRetryableHTTPStatus returns true for HTTP status codes worth retrying.
func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// signPayload creates an HMAC-SHA256 signature of the payload.
func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature produced for payload with secret.
func VerifySignature(payload []byte, signature, secret string) bool {
	signature = strings.TrimPrefix(signature, "sha256=")

	expected := signPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

var (
	_ ports.EmailNotifier = (*EmailNotifier)(nil)
	_ ports.WebNotifier   = (*WebNotifier)(nil)
)
