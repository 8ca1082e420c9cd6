package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askchopper-dev/askchopper/internal/domain"
)

func TestCreateRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/threads/thread_1/runs", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "assistants=v2", r.Header.Get("OpenAI-Beta"))
		w.Write([]byte(`{"id":"run_1","thread_id":"thread_1","status":"queued"}`))
	}))
	defer srv.Close()

	c := New("sk-test", srv.URL)
	run, err := c.CreateRun(context.Background(), "thread_1", &CreateRunRequest{AssistantId: "asst_1"})

	require.NoError(t, err)
	assert.Equal(t, "run_1", run.Id)
	assert.False(t, run.Terminal())
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"auth", http.StatusUnauthorized, domain.ErrProviderAuth},
		{"forbidden", http.StatusForbidden, domain.ErrProviderAuth},
		{"rate limit", http.StatusTooManyRequests, domain.ErrProviderRateLimit},
		{"bad request", http.StatusBadRequest, domain.ErrProviderRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"nope"}}`))
			}))
			defer srv.Close()

			c := New("sk-test", srv.URL)
			_, err := c.CreateThread(context.Background())

			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.sentinel), "expected %v in chain, got %v", tc.sentinel, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestUploadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "assistants", r.FormValue("purpose"))
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "notes.txt", hdr.Filename)
		w.Write([]byte(`{"id":"file_1","filename":"notes.txt","bytes":5}`))
	}))
	defer srv.Close()

	c := New("sk-test", srv.URL)
	f, err := c.UploadFile(context.Background(), "notes.txt", strings.NewReader("hello"))

	require.NoError(t, err)
	assert.Equal(t, "file_1", f.Id)
}

func TestPlainText(t *testing.T) {
	msg := &ThreadMessage{Content: []MessageContent{
		{Type: "text", Text: &MessageText{Value: "one "}},
		{Type: "image_file"},
		{Type: "text", Text: &MessageText{Value: "two"}},
	}}
	assert.Equal(t, "one two", msg.PlainText())
}

func TestRunTerminal(t *testing.T) {
	for status, terminal := range map[string]bool{
		RunStatusQueued:     false,
		RunStatusInProgress: false,
		RunStatusCancelling: false,
		RunStatusCompleted:  true,
		RunStatusFailed:     true,
		RunStatusCancelled:  true,
		RunStatusExpired:    true,
	} {
		assert.Equal(t, terminal, (&Run{Status: status}).Terminal(), status)
	}
}
