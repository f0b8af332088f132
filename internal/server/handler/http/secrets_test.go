package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	handler "github.com/atinyakov/BurnLink/internal/server/handler/http"
	"github.com/atinyakov/BurnLink/internal/service"
)

// fakeLifecycle records calls and returns preconfigured results.
type fakeLifecycle struct {
	createResult   *service.CreateResult
	createErr      error
	retrieveResult *service.RetrieveResult
	retrieveErr    error

	receivedEnvelope json.RawMessage
	receivedID       string
}

func (f *fakeLifecycle) Create(ctx context.Context, envelope json.RawMessage, maxViews, ttlHours int) (*service.CreateResult, error) {
	f.receivedEnvelope = envelope
	return f.createResult, f.createErr
}

func (f *fakeLifecycle) Retrieve(ctx context.Context, externalID string) (*service.RetrieveResult, error) {
	f.receivedID = externalID
	return f.retrieveResult, f.retrieveErr
}

// fakeValidator accepts every token unless err is set.
type fakeValidator struct {
	err      error
	received string
}

func (f *fakeValidator) Validate(tok string) error {
	f.received = tok
	return f.err
}

func postJSON(t *testing.T, h nethttp.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(nethttp.MethodPost, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func validCreateBody() map[string]any {
	return map[string]any{
		"envelope": map[string]any{"type": "key", "ciphertext": "AAAA"},
		"maxViews": 1,
		"ttlHours": 24,
		"token":    "tok",
	}
}

func TestCreate_Success(t *testing.T) {
	fake := &fakeLifecycle{createResult: &service.CreateResult{
		ExternalID: "ext-1",
		ExpiresAt:  time.UnixMilli(1_700_000_000_000),
		MaxViews:   1,
	}}
	validator := &fakeValidator{}
	h := &handler.SecretsHandler{Service: fake, Tokens: validator}

	w := postJSON(t, h.Create, "/api/secrets", validCreateBody())

	if w.Code != nethttp.StatusCreated {
		t.Fatalf("status = %d; want %d (body %s)", w.Code, nethttp.StatusCreated, w.Body)
	}
	if validator.received != "tok" {
		t.Errorf("validated token = %q; want %q", validator.received, "tok")
	}
	var resp struct {
		ExternalID string `json:"externalId"`
		ExpiresAt  int64  `json:"expiresAt"`
		MaxViews   int    `json:"maxViews"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ExternalID != "ext-1" || resp.ExpiresAt != 1_700_000_000_000 || resp.MaxViews != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestCreate_BadJSON(t *testing.T) {
	h := &handler.SecretsHandler{Service: &fakeLifecycle{}, Tokens: &fakeValidator{}}
	req := httptest.NewRequest(nethttp.MethodPost, "/api/secrets", bytes.NewBufferString("not-a-json"))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != nethttp.StatusBadRequest {
		t.Errorf("status = %d; want %d", w.Code, nethttp.StatusBadRequest)
	}
}

func TestCreate_InvalidToken(t *testing.T) {
	fake := &fakeLifecycle{}
	h := &handler.SecretsHandler{Service: fake, Tokens: &fakeValidator{err: errors.New("invalid anti-forgery token")}}

	w := postJSON(t, h.Create, "/api/secrets", validCreateBody())

	if w.Code != nethttp.StatusForbidden {
		t.Errorf("status = %d; want %d", w.Code, nethttp.StatusForbidden)
	}
	if fake.receivedEnvelope != nil {
		t.Error("service called despite invalid token")
	}
}

func TestCreate_ValidationError(t *testing.T) {
	fake := &fakeLifecycle{createErr: &service.ValidationError{Field: "maxViews", Reason: "must be in [1, 100]"}}
	h := &handler.SecretsHandler{Service: fake, Tokens: &fakeValidator{}}

	w := postJSON(t, h.Create, "/api/secrets", validCreateBody())

	if w.Code != nethttp.StatusBadRequest {
		t.Errorf("status = %d; want %d", w.Code, nethttp.StatusBadRequest)
	}
}

func TestCreate_StoreError(t *testing.T) {
	fake := &fakeLifecycle{createErr: &service.StoreError{Op: "save", Err: errors.New("redis down")}}
	h := &handler.SecretsHandler{Service: fake, Tokens: &fakeValidator{}}

	w := postJSON(t, h.Create, "/api/secrets", validCreateBody())

	if w.Code != nethttp.StatusInternalServerError {
		t.Errorf("status = %d; want %d", w.Code, nethttp.StatusInternalServerError)
	}
}

func TestView_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", service.ErrNotFound, nethttp.StatusNotFound},
		{"exhausted", service.ErrExhausted, nethttp.StatusGone},
		{"store failure", &service.StoreError{Op: "get", Err: errors.New("redis down")}, nethttp.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeLifecycle{retrieveErr: tc.err}
			h := &handler.SecretsHandler{Service: fake, Tokens: &fakeValidator{}}

			w := postJSON(t, h.View, "/api/secrets/ext-1/view", map[string]any{"token": "tok"})

			if w.Code != tc.want {
				t.Errorf("status = %d; want %d", w.Code, tc.want)
			}
		})
	}
}

func TestView_Success(t *testing.T) {
	fake := &fakeLifecycle{retrieveResult: &service.RetrieveResult{
		Envelope:   json.RawMessage(`{"type":"key","ciphertext":"AAAA"}`),
		ViewCount:  2,
		MaxViews:   2,
		IsLastView: true,
		CreatedAt:  time.UnixMilli(1_700_000_000_000),
	}}
	h := &handler.SecretsHandler{Service: fake, Tokens: &fakeValidator{}}

	w := postJSON(t, h.View, "/api/secrets/ext-1/view", map[string]any{"token": "tok"})

	if w.Code != nethttp.StatusOK {
		t.Fatalf("status = %d; want %d (body %s)", w.Code, nethttp.StatusOK, w.Body)
	}
	var resp struct {
		Envelope   json.RawMessage `json:"envelope"`
		ViewCount  int             `json:"viewCount"`
		MaxViews   int             `json:"maxViews"`
		IsLastView bool            `json:"isLastView"`
		CreatedAt  int64           `json:"createdAt"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ViewCount != 2 || resp.MaxViews != 2 || !resp.IsLastView || resp.CreatedAt != 1_700_000_000_000 {
		t.Errorf("response = %+v", resp)
	}
}
