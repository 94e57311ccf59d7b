package messenger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"StudyBot/backend/go/internal/config"
	pkghttp "StudyBot/backend/go/pkg/http"
)

type capturedRequest struct {
	path  string
	query url.Values
	body  map[string]interface{}
}

func newCaptureServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.query = r.URL.Query()
		if data, err := io.ReadAll(r.Body); err == nil && len(data) > 0 {
			json.Unmarshal(data, &captured.body)
		}
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newGraphClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	httpClient, err := pkghttp.NewClient(2*time.Second, config.CircuitBreakerConfig{})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return NewClient(&config.MessengerConfig{
		PageAccessToken: "page-token",
		GraphBaseURL:    baseURL,
	}, httpClient)
}

func TestSendText(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK, `{}`)
	c := newGraphClient(t, srv.URL)

	if err := c.SendText(context.Background(), "recipient-1", "hello", TypeResponse); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}

	if captured.path != "/me/messages" {
		t.Errorf("Expected path /me/messages, got %s", captured.path)
	}
	if got := captured.query.Get("access_token"); got != "page-token" {
		t.Errorf("Expected the page token in the query, got %q", got)
	}

	recipient, _ := captured.body["recipient"].(map[string]interface{})
	if recipient["id"] != "recipient-1" {
		t.Errorf("Expected recipient id recipient-1, got %v", captured.body["recipient"])
	}
	message, _ := captured.body["message"].(map[string]interface{})
	if message["text"] != "hello" {
		t.Errorf("Expected the message text in the body, got %v", captured.body["message"])
	}
	if captured.body["messaging_type"] != "RESPONSE" {
		t.Errorf("Expected messaging_type RESPONSE, got %v", captured.body["messaging_type"])
	}
}

func TestSendText_ServerError(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusBadRequest, `{"error": "invalid token"}`)
	c := newGraphClient(t, srv.URL)

	if err := c.SendText(context.Background(), "recipient-1", "hello", TypeResponse); err == nil {
		t.Error("Expected an error for a non-200 response")
	}
}

func TestSendAction(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK, `{}`)
	c := newGraphClient(t, srv.URL)

	if err := c.SendAction(context.Background(), "recipient-1", ActionTypingOn); err != nil {
		t.Fatalf("SendAction() error = %v", err)
	}

	if captured.body["sender_action"] != "typing_on" {
		t.Errorf("Expected sender_action typing_on, got %v", captured.body["sender_action"])
	}
}

func TestGetProfile(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK, `{"first_name": "Ada", "last_name": "Lovelace"}`)
	c := newGraphClient(t, srv.URL)

	profile, err := c.GetProfile(context.Background(), "sender-1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}

	if captured.path != "/sender-1" {
		t.Errorf("Expected path /sender-1, got %s", captured.path)
	}
	if got := captured.query.Get("fields"); got != "first_name,last_name" {
		t.Errorf("Expected the name fields requested, got %q", got)
	}
	if profile.FirstName != "Ada" || profile.LastName != "Lovelace" {
		t.Errorf("Expected the parsed profile, got %+v", profile)
	}
}
