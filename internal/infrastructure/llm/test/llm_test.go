package llm_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/llm"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var seen []map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test-key-123", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		seen = append(seen, body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"  Learn Go Fast  "}}],"usage":{"total_tokens":10}}`)
	})
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		seen = append(seen, body)
		w.Header().Set("Content-Type", "application/json")
		payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
		_, _ = io.WriteString(w, `{"created":1,"data":[{"b64_json":"`+payload+`"}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestGenerateText(t *testing.T) {
	srv, seen := newServer(t)
	client := llm.NewClient(llm.Config{BaseURL: srv.URL + "/v1"}, log.NewStdLogger(io.Discard))

	text, err := client.GenerateText(context.Background(), "sk-test-key-123", llm.TitleSystemPrompt, "transcript")
	require.NoError(t, err)
	require.Equal(t, "Learn Go Fast", text)
	require.Equal(t, "gpt-4o", (*seen)[0]["model"])
	messages := (*seen)[0]["messages"].([]any)
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
	require.Equal(t, "transcript", messages[1].(map[string]any)["content"])
}

func TestGenerateImage(t *testing.T) {
	srv, seen := newServer(t)
	client := llm.NewClient(llm.Config{BaseURL: srv.URL + "/v1"}, log.NewStdLogger(io.Discard))

	data, err := client.GenerateImage(context.Background(), "sk-test-key-123", "a sunset over mountains")
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), data)
	require.Equal(t, "1792x1024", (*seen)[0]["size"])
	require.Equal(t, "b64_json", (*seen)[0]["response_format"])
	require.Equal(t, "dall-e-3", (*seen)[0]["model"])
}

func TestMissingAPIKey(t *testing.T) {
	client := llm.NewClient(llm.Config{}, log.NewStdLogger(io.Discard))
	_, err := client.GenerateText(context.Background(), " ", "s", "i")
	require.ErrorIs(t, err, llm.ErrMissingAPIKey)
	_, err = client.GenerateImage(context.Background(), "", "p")
	require.ErrorIs(t, err, llm.ErrMissingAPIKey)
}
