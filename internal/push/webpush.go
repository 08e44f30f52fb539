package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
)

const (
	defaultSendTimeout = 10 * time.Second
	defaultTTLSeconds  = 60 * 60 * 24
	maxErrorBodyBytes  = 2048
)

// WebPushTransport delivers payloads over the Web Push protocol. The payload
// is serialized to its canonical JSON envelope, encrypted against the
// subscription keys, and signed with the server VAPID keypair.
type WebPushTransport struct {
	vapidPublicKey  string
	vapidPrivateKey string
	subject         string
	ttl             int
	client          *http.Client
}

var _ Transport = (*WebPushTransport)(nil)

func NewWebPushTransport(vapidPublicKey, vapidPrivateKey, subject string) (*WebPushTransport, error) {
	return NewWebPushTransportWithClient(vapidPublicKey, vapidPrivateKey, subject, &http.Client{Timeout: defaultSendTimeout})
}

func NewWebPushTransportWithClient(vapidPublicKey, vapidPrivateKey, subject string, client *http.Client) (*WebPushTransport, error) {
	if strings.TrimSpace(vapidPublicKey) == "" || strings.TrimSpace(vapidPrivateKey) == "" {
		return nil, fmt.Errorf("vapid keypair is required")
	}
	if strings.TrimSpace(subject) == "" {
		return nil, fmt.Errorf("push subject is required")
	}
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if client.Timeout == 0 {
		client.Timeout = defaultSendTimeout
	}

	return &WebPushTransport{
		vapidPublicKey:  strings.TrimSpace(vapidPublicKey),
		vapidPrivateKey: strings.TrimSpace(vapidPrivateKey),
		subject:         strings.TrimSpace(subject),
		ttl:             defaultTTLSeconds,
		client:          client,
	}, nil
}

func (t *WebPushTransport) Send(ctx context.Context, sub domain.Subscription, payload domain.Payload) (*SendResult, error) {
	if t == nil || t.client == nil {
		return nil, fmt.Errorf("transport is not initialized")
	}
	if err := sub.Validate(); err != nil {
		return nil, fmt.Errorf("invalid subscription: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	envelope, err := payload.Encode()
	if err != nil {
		return nil, err
	}

	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, envelope, target, &webpush.Options{
		HTTPClient:      t.client,
		Subscriber:      t.subject,
		VAPIDPublicKey:  t.vapidPublicKey,
		VAPIDPrivateKey: t.vapidPrivateKey,
		TTL:             t.ttl,
	})
	if err != nil {
		return nil, &SendError{
			Class:   FailureTransient,
			Message: "push request failed",
			Cause:   err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	statusCode := resp.StatusCode
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &SendResult{StatusCode: statusCode}, nil
	}

	return nil, &SendError{
		Class:      classifyStatus(statusCode),
		StatusCode: statusCode,
		Message:    responseErrorMessage(statusCode, resp.Body),
	}
}

func responseErrorMessage(statusCode int, body io.Reader) string {
	base := fmt.Sprintf("push service returned status %d", statusCode)

	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil && !errors.Is(err, io.EOF) {
		return base
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, trimmed)
}
