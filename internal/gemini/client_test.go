package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
}

func partsResponse(parts ...map[string]any) []byte {
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": parts}},
		},
	})
	return body
}

func TestStylize(t *testing.T) {
	ctx := context.Background()

	t.Run("sends inline image and requested modalities", func(t *testing.T) {
		var got generateContentRequest
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1beta/models/gemini-2.5-flash-image:generateContent", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			_, _ = w.Write(partsResponse(map[string]any{
				"inlineData": map[string]any{"data": "UE5H", "mimeType": "image/png"},
			}))
		})

		result, err := client.Stylize(ctx, "aW1n", "image/jpeg", "make it renaissance")
		require.NoError(t, err)
		assert.Equal(t, "UE5H", result)

		require.Len(t, got.Contents, 1)
		require.Len(t, got.Contents[0].Parts, 2)
		assert.Equal(t, "make it renaissance", got.Contents[0].Parts[0].Text)
		require.NotNil(t, got.Contents[0].Parts[1].InlineData)
		assert.Equal(t, "aW1n", got.Contents[0].Parts[1].InlineData.Data)
		assert.Equal(t, "image/jpeg", got.Contents[0].Parts[1].InlineData.MimeType)
		assert.Equal(t, []string{"IMAGE", "TEXT"}, got.GenerationConfig.ResponseModalities)
	})

	t.Run("returns the first image-bearing part", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(partsResponse(
				map[string]any{"text": "here is your portrait"},
				map[string]any{"inlineData": map[string]any{"data": "Zmlyc3Q=", "mimeType": "image/png"}},
				map[string]any{"inlineData": map[string]any{"data": "c2Vjb25k", "mimeType": "image/png"}},
			))
		})

		result, err := client.Stylize(ctx, "aW1n", "image/jpeg", "prompt")
		require.NoError(t, err)
		assert.Equal(t, "Zmlyc3Q=", result)
	})

	t.Run("reports a possibly blocked prompt when no image comes back", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(partsResponse(map[string]any{"text": "cannot do that"}))
		})

		_, err := client.Stylize(ctx, "aW1n", "image/jpeg", "prompt")
		require.ErrorIs(t, err, ErrNoImage)
		assert.Contains(t, err.Error(), "blocked")
	})

	t.Run("empty candidate list is treated the same", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		})

		_, err := client.Stylize(ctx, "aW1n", "image/jpeg", "prompt")
		assert.ErrorIs(t, err, ErrNoImage)
	})

	t.Run("surfaces the remote cause on transport errors", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded for project", http.StatusTooManyRequests)
		})

		_, err := client.Stylize(ctx, "aW1n", "image/jpeg", "prompt")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded for project")
	})

	t.Run("rejects empty input without calling out", func(t *testing.T) {
		called := false
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		_, err := client.Stylize(ctx, "aW1n", "image/jpeg", "")
		assert.Error(t, err)
		_, err = client.Stylize(ctx, "", "image/jpeg", "prompt")
		assert.Error(t, err)
		assert.False(t, called)
	})
}
