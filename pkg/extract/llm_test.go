package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundscope/fundscope/pkg/config"
)

func TestLLMExtractor_Extract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{
					"message": map[string]interface{}{
						"role": "assistant",
						"content": `{"title":"Acme Raises $12M","amount_usd":12000000,` +
							`"round":"Series A","investors":"led by a16z","pub_date":"2024-05-01"}`,
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	e := NewLLMExtractor(config.LLMConfig{
		Endpoint: server.URL,
		APIKey:   "test-key",
		Model:    "test-model",
		Timeout:  5 * time.Second,
	})

	fields := e.Extract(context.Background(), `<html><title>Acme</title><body>Acme raised $12 million.</body></html>`)
	assert.Equal(t, "Acme Raises $12M", fields.Title)
	assert.Equal(t, int64(12_000_000), fields.AmountUSD)
	assert.Equal(t, "Series A", fields.Round)
	assert.Equal(t, "led by a16z", fields.Investors)
	assert.Equal(t, "2024-05-01", fields.PubDate)
}

func TestLLMExtractor_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	e := NewLLMExtractor(config.LLMConfig{Endpoint: server.URL, Model: "test-model", Timeout: time.Second})

	// failure degrades to page title only, never an error
	fields := e.Extract(context.Background(), `<html><title>Acme</title><body>x</body></html>`)
	assert.Equal(t, "Acme", fields.Title)
	assert.Equal(t, int64(0), fields.AmountUSD)
}

func TestParseLLMFields(t *testing.T) {
	t.Run("plain object", func(t *testing.T) {
		fields, err := parseLLMFields(`{"title":"t","amount_usd":5000000,"round":"Seed","investors":"","pub_date":""}`)
		require.NoError(t, err)
		assert.Equal(t, int64(5_000_000), fields.AmountUSD)
		assert.Equal(t, "Seed", fields.Round)
	})

	t.Run("fenced object", func(t *testing.T) {
		fields, err := parseLLMFields("```json\n{\"title\":\"t\",\"amount_usd\":0}\n```")
		require.NoError(t, err)
		assert.Equal(t, "t", fields.Title)
	})

	t.Run("prose around object", func(t *testing.T) {
		fields, err := parseLLMFields(`Here you go: {"round":"Series B"} hope that helps`)
		require.NoError(t, err)
		assert.Equal(t, "Series B", fields.Round)
	})

	t.Run("no object", func(t *testing.T) {
		_, err := parseLLMFields("sorry, no data")
		require.Error(t, err)
	})

	t.Run("negative amount ignored", func(t *testing.T) {
		fields, err := parseLLMFields(`{"amount_usd":-5}`)
		require.NoError(t, err)
		assert.Equal(t, int64(0), fields.AmountUSD)
	})
}
