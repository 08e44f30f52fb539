package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
)

type fakeSubscriptionStore struct {
	saveFn       func(ctx context.Context, s *domain.Subscription) error
	deactivateFn func(ctx context.Context, endpoint string) error
}

func (f *fakeSubscriptionStore) Save(ctx context.Context, s *domain.Subscription) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, s)
	}
	return nil
}

func (f *fakeSubscriptionStore) DeactivateByEndpoint(ctx context.Context, endpoint string) error {
	if f.deactivateFn != nil {
		return f.deactivateFn(ctx, endpoint)
	}
	return nil
}

func newSubscriptionApp(t *testing.T, store SubscriptionStore) *fiber.App {
	t.Helper()

	app := fiber.New()
	if err := RegisterSubscriptionRoutes(app, store); err != nil {
		t.Fatalf("RegisterSubscriptionRoutes() error = %v", err)
	}
	return app
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
}

func TestSubscribeCreatesActiveSubscription(t *testing.T) {
	t.Parallel()

	var saved *domain.Subscription
	store := &fakeSubscriptionStore{
		saveFn: func(ctx context.Context, s *domain.Subscription) error {
			saved = s
			return nil
		},
	}
	app := newSubscriptionApp(t, store)

	req := jsonRequest(t, http.MethodPost, "/v1/subscriptions", map[string]any{
		"userId":   "user-1",
		"endpoint": "https://push.example.com/sub-1",
		"keys": map[string]string{
			"p256dh": "p256dh-key",
			"auth":   "auth-secret",
		},
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	if saved == nil {
		t.Fatal("subscription was not saved")
	}
	if saved.ID == "" {
		t.Fatal("subscription id was not assigned")
	}
	if !saved.IsActive {
		t.Fatal("new subscription must be active")
	}

	var body subscriptionResponse
	decodeBody(t, resp, &body)
	if body.UserID != "user-1" || body.Endpoint != "https://push.example.com/sub-1" {
		t.Fatalf("response = %+v", body)
	}
}

func TestSubscribeRejectsMissingKeys(t *testing.T) {
	t.Parallel()

	app := newSubscriptionApp(t, &fakeSubscriptionStore{
		saveFn: func(ctx context.Context, s *domain.Subscription) error {
			t.Fatal("Save must not be called for an invalid subscription")
			return nil
		},
	})

	req := jsonRequest(t, http.MethodPost, "/v1/subscriptions", map[string]any{
		"userId":   "user-1",
		"endpoint": "https://push.example.com/sub-1",
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUnsubscribeDeactivatesEndpoint(t *testing.T) {
	t.Parallel()

	var gotEndpoint string
	store := &fakeSubscriptionStore{
		deactivateFn: func(ctx context.Context, endpoint string) error {
			gotEndpoint = endpoint
			return nil
		},
	}
	app := newSubscriptionApp(t, store)

	req := jsonRequest(t, http.MethodDelete, "/v1/subscriptions", map[string]string{
		"endpoint": "https://push.example.com/sub-1",
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gotEndpoint != "https://push.example.com/sub-1" {
		t.Fatalf("endpoint = %q", gotEndpoint)
	}
}

func TestUnsubscribeUnknownEndpointIsNoOp(t *testing.T) {
	t.Parallel()

	store := &fakeSubscriptionStore{
		deactivateFn: func(ctx context.Context, endpoint string) error {
			return fmt.Errorf("%w: subscription", domain.ErrNotFound)
		},
	}
	app := newSubscriptionApp(t, store)

	req := jsonRequest(t, http.MethodDelete, "/v1/subscriptions", map[string]string{
		"endpoint": "https://push.example.com/gone",
	})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200 for an unknown endpoint", resp.StatusCode)
	}
}

func TestUnsubscribeRequiresEndpoint(t *testing.T) {
	t.Parallel()

	app := newSubscriptionApp(t, &fakeSubscriptionStore{})

	req := jsonRequest(t, http.MethodDelete, "/v1/subscriptions", map[string]string{})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestToHTTPErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: fmt.Errorf("%w: bad", domain.ErrValidation), want: fiber.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("%w: missing", domain.ErrNotFound), want: fiber.StatusNotFound},
		{name: "conflict", err: fmt.Errorf("%w: dup", domain.ErrConflict), want: fiber.StatusConflict},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var fiberErr *fiber.Error
			if !errors.As(toHTTPError(tt.err), &fiberErr) {
				t.Fatal("expected a fiber error")
			}
			if fiberErr.Code != tt.want {
				t.Fatalf("code = %d, want %d", fiberErr.Code, tt.want)
			}
		})
	}
}
