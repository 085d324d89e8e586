package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
)

func TestClient_GenerateSendsImageInline(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"richLookalike\":\"이건희\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("key-1", srv.URL+"/", 5*time.Second, 85, 99)
	out, err := c.Generate(context.Background(), "gemini-2.5-flash", "read this", analysis.Image{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}})
	require.NoError(t, err)
	assert.Equal(t, `{"richLookalike":"이건희"}`, out)

	assert.Equal(t, "gemini-2.5-flash", got["model"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	user := msgs[1].(map[string]any)
	parts := user["content"].([]any)
	require.Len(t, parts, 2)
	img := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,/9g=", img["url"])
}

func TestClient_GenerateMapsQuotaErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota","type":"rate_limit","code":429}}`))
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, time.Second, 85, 99)
	_, err := c.Generate(context.Background(), "m", "p", analysis.Image{Data: []byte{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, analysis.ErrQuotaExceeded)
}

func TestClient_GenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, time.Second, 85, 99)
	_, err := c.Generate(context.Background(), "m", "p", analysis.Image{Data: []byte{1}})
	assert.ErrorIs(t, err, analysis.ErrUnparsable)
}

func TestClient_ListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"models/gemini-2.5-flash","object":"model","owned_by":"google","created":1700000000}]}`))
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, time.Second, 85, 99)
	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "gemini-2.5-flash", models[0].ID)
	assert.Equal(t, "google", models[0].OwnedBy)
	assert.Equal(t, int64(1700000000), models[0].Created.Unix())
}
