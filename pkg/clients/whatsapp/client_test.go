package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mamadbah2/stones/internal/config"
)

func TestAPIClient_SendText(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody textMessage
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{
		AccessToken:   "secret",
		PhoneNumberID: "1234",
		BaseURL:       srv.URL + "/",
		APIVersion:    "v20.0",
	})

	id, err := client.SendText(context.Background(), "919800000001", "hello")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if id != "wamid.1" {
		t.Fatalf("unexpected message id %q", id)
	}
	if gotPath != "/v20.0/1234/messages" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody.MessagingProduct != "whatsapp" || gotBody.To != "919800000001" || gotBody.Text.Body != "hello" {
		t.Fatalf("unexpected payload %+v", gotBody)
	}
}

func TestAPIClient_SendText_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","code":190}}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "bad", PhoneNumberID: "1234", BaseURL: srv.URL, APIVersion: "v20.0"})

	_, err := client.SendText(context.Background(), "919800000001", "hello")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Code != 190 || !strings.Contains(apiErr.Message, "OAuth") {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

type recordingClient struct {
	mu   sync.Mutex
	sent []string
	fail map[string]bool
}

func (c *recordingClient) SendText(ctx context.Context, to, body string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail[to] {
		return "", errors.New("rejected")
	}
	c.sent = append(c.sent, to+":"+body)
	return "id-" + to, nil
}

func TestSummaryNotifier_ContinuesPastFailures(t *testing.T) {
	client := &recordingClient{fail: map[string]bool{"b": true}}
	n := NewSummaryNotifier(client, []string{"a", "b", "c"}, nil)

	err := n.Notify(context.Background(), "summary")
	if err == nil || !strings.Contains(err.Error(), "notify b") {
		t.Fatalf("expected failure for b, got %v", err)
	}
	if strings.Join(client.sent, ",") != "a:summary,c:summary" {
		t.Fatalf("unexpected deliveries %v", client.sent)
	}
}
