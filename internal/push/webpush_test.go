package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
)

func TestWebPushTransportSendSuccess(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotEncoding string
	var gotBodyLen int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		gotEncoding = r.Header.Get("Content-Encoding")
		body, _ := io.ReadAll(r.Body)
		gotBodyLen = len(body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	transport := newTestTransport(t)
	sub := newTestSubscription(t, server.URL)

	result, err := transport.Send(context.Background(), sub, domain.Payload{
		Title: "Event reminder",
		Body:  "Airway workshop starts in 1 hour",
		URL:   "https://app.example.test/events/event-1",
	})
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if result.StatusCode != http.StatusCreated {
		t.Fatalf("StatusCode = %d, want %d", result.StatusCode, http.StatusCreated)
	}
	if !strings.HasPrefix(gotAuth, "vapid") {
		t.Fatalf("Authorization = %q, want vapid scheme", gotAuth)
	}
	if gotEncoding != "aes128gcm" {
		t.Fatalf("Content-Encoding = %q, want aes128gcm", gotEncoding)
	}
	if gotBodyLen == 0 {
		t.Fatal("expected encrypted payload body")
	}
}

func TestWebPushTransportSendClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		statusCode      int
		wantExpired     bool
		wantRateLimited bool
	}{
		{name: "gone is expired", statusCode: http.StatusGone, wantExpired: true},
		{name: "not found is expired", statusCode: http.StatusNotFound, wantExpired: true},
		{name: "too many requests is rate limited", statusCode: http.StatusTooManyRequests, wantRateLimited: true},
		{name: "server error is transient", statusCode: http.StatusInternalServerError},
		{name: "bad request is transient", statusCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte("push service said no"))
			}))
			defer server.Close()

			transport := newTestTransport(t)
			sub := newTestSubscription(t, server.URL)

			_, err := transport.Send(context.Background(), sub, domain.Payload{
				Title: "t",
				Body:  "b",
			})
			if err == nil {
				t.Fatal("expected error")
			}

			if got := IsExpired(err); got != tt.wantExpired {
				t.Fatalf("IsExpired() = %v, want %v", got, tt.wantExpired)
			}
			if got := IsRateLimited(err); got != tt.wantRateLimited {
				t.Fatalf("IsRateLimited() = %v, want %v", got, tt.wantRateLimited)
			}

			var sendErr *SendError
			if !errors.As(err, &sendErr) {
				t.Fatalf("expected SendError, got %T", err)
			}
			if sendErr.StatusCode != tt.statusCode {
				t.Fatalf("SendError.StatusCode = %d, want %d", sendErr.StatusCode, tt.statusCode)
			}
			if !strings.Contains(sendErr.Message, "push service said no") {
				t.Fatalf("SendError.Message = %q, want body excerpt", sendErr.Message)
			}
		})
	}
}

func TestWebPushTransportSendNetworkErrorIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	transport := newTestTransport(t)
	sub := newTestSubscription(t, server.URL)

	_, err := transport.Send(context.Background(), sub, domain.Payload{Title: "t", Body: "b"})
	if err == nil {
		t.Fatal("expected network error")
	}
	if IsExpired(err) || IsRateLimited(err) {
		t.Fatalf("network error should be transient, got %v", err)
	}
}

func TestWebPushTransportRejectsIncompleteSubscription(t *testing.T) {
	t.Parallel()

	transport := newTestTransport(t)

	_, err := transport.Send(context.Background(), domain.Subscription{
		UserID:   "user-1",
		Endpoint: "https://push.example.test/abc",
	}, domain.Payload{Title: "t", Body: "b"})
	if err == nil {
		t.Fatal("expected validation error for missing keys")
	}
}

func TestNewWebPushTransportValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewWebPushTransport("", "", "mailto:admin@example.test"); err == nil {
		t.Fatal("expected error for missing vapid keys")
	}

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("GenerateVAPIDKeys() error = %v", err)
	}
	if _, err := NewWebPushTransport(publicKey, privateKey, ""); err == nil {
		t.Fatal("expected error for missing subject")
	}
}

func newTestTransport(t *testing.T) *WebPushTransport {
	t.Helper()

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("GenerateVAPIDKeys() error = %v", err)
	}

	transport, err := NewWebPushTransport(publicKey, privateKey, "mailto:admin@example.test")
	if err != nil {
		t.Fatalf("NewWebPushTransport() error = %v", err)
	}
	return transport
}

// newTestSubscription builds a subscription with a real P-256 keypair so the
// transport's payload encryption succeeds against the test server.
func newTestSubscription(t *testing.T, endpoint string) domain.Subscription {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate p256 key: %v", err)
	}

	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		t.Fatalf("failed to generate auth secret: %v", err)
	}

	return domain.Subscription{
		ID:       "sub-1",
		UserID:   "user-1",
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(auth),
		IsActive: true,
	}
}
