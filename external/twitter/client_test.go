package twitter

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/dota2-results/internal/platform/logging"
	"github.com/riskibarqy/dota2-results/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{Name: "primary", BaseURL: server.URL, AccessToken: "token", Logger: logging.NewNop()})
}

func TestClient_PostSendsText(t *testing.T) {
	var got postRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(raw, &got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1","text":"ok"}}`))
	})

	require.NoError(t, client.Post(context.Background(), "[EG] 31—20 Liquid"))
	assert.Equal(t, "[EG] 31—20 Liquid", got.Text)
	assert.Nil(t, got.Media)
	assert.Equal(t, "primary", client.Name())
}

func TestClient_PostWithMediaUploadsFirst(t *testing.T) {
	var paths []string
	var post postRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/2/media/upload":
			var upload mediaUploadRequest
			assert.NoError(t, sonic.Unmarshal(raw, &upload))
			assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png")), upload.Media)
			_, _ = w.Write([]byte(`{"data":{"id":"m-9"}}`))
		case "/2/tweets":
			assert.NoError(t, sonic.Unmarshal(raw, &post))
			_, _ = w.Write([]byte(`{"data":{"id":"2"}}`))
		}
	})

	require.NoError(t, client.PostWithMedia(context.Background(), "text", []byte("png")))
	assert.Equal(t, []string{"/2/media/upload", "/2/tweets"}, paths)
	require.NotNil(t, post.Media)
	assert.Equal(t, []string{"m-9"}, post.Media.MediaIDs)
}

func TestClient_FailureClassification(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantTerminal bool
	}{
		{
			name:         "duplicate content",
			status:       http.StatusForbidden,
			body:         `{"title":"Forbidden","detail":"You are not allowed to create a Tweet with duplicate content."}`,
			wantTerminal: true,
		},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"title":"Too Many Requests"}`, wantTerminal: true},
		{name: "daily limit", status: http.StatusForbidden, body: `{"errors":[{"message":"User is over daily status update limit."}]}`, wantTerminal: true},
		{name: "server error", status: http.StatusServiceUnavailable, body: "upstream down", wantTerminal: false},
		{name: "other forbidden", status: http.StatusForbidden, body: `{"title":"Forbidden","detail":"app suspended"}`, wantTerminal: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := client.Post(context.Background(), "text")
			require.Error(t, err)
			assert.Equal(t, tt.wantTerminal, usecase.IsTerminal(err))
		})
	}
}

func TestFailureMessage_FallsBackToRawBody(t *testing.T) {
	msg := failureMessage([]byte(strings.Repeat("x", maxErrorBody+10)))
	assert.True(t, strings.HasSuffix(msg, "..."))
	assert.Len(t, msg, maxErrorBody+3)
}
