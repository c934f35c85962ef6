package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festival-workers/internal/common/cache"
	"festival-workers/internal/common/logger"
)

func TestOpenAIBackend_StructuredCompletion(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
		  "id": "chatcmpl-1",
		  "object": "chat.completion",
		  "created": 1,
		  "model": "gpt-4o-mini-2024-07-18",
		  "choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"name\":\"Sonar\",\"location\":\"Barcelona\"}"}, "finish_reason": "stop"}],
		  "usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
		}`)
	}))
	defer server.Close()

	g, err := New(context.Background(), Config{
		Provider: "openai",
		Model:    "gpt-4o-mini",
		APIKey:   "sk-test",
		BaseURL:  server.URL + "/v1",
	}, cache.NewMemory(), logger.NewTestLogger(t))
	require.NoError(t, err)

	req := festivalRequest("extract the festival")
	req.SystemPrompt = "You extract festival data."
	got, err := Object[festivalResult](context.Background(), g, req)
	require.NoError(t, err)
	assert.Equal(t, festivalResult{Name: "Sonar", Location: "Barcelona"}, got)

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	format, ok := captured["response_format"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	jsonSchema := format["json_schema"].(map[string]interface{})
	assert.Equal(t, "festival", jsonSchema["name"])

	messages := captured["messages"].([]interface{})
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "extract the festival", messages[1].(map[string]interface{})["content"])
}

func TestOpenAIBackend_SendsZeroTemperature(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
		  "id": "chatcmpl-2",
		  "object": "chat.completion",
		  "created": 1,
		  "model": "gpt-4o-mini",
		  "choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"name\":\"Sonar\"}"}, "finish_reason": "stop"}],
		  "usage": {"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}
		}`)
	}))
	defer server.Close()

	zero := 0.0
	g, err := New(context.Background(), Config{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		APIKey:      "sk-test",
		BaseURL:     server.URL + "/v1",
		Temperature: &zero,
	}, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	_, err = Object[festivalResult](context.Background(), g, festivalRequest("extract"))
	require.NoError(t, err)

	require.Contains(t, captured, "temperature")
	assert.InDelta(t, 0, captured["temperature"], 1e-9)
}

func TestOpenAITemperature(t *testing.T) {
	assert.Equal(t, float32(math.SmallestNonzeroFloat32), openAITemperature(0))
	assert.Equal(t, float32(0.8), openAITemperature(0.8))
}

func TestOpenAIBackend_StreamAssemblesChunks(t *testing.T) {
	chunks := []string{`{\"name\":`, `\"Primavera `, `Sound\"}`}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4o-mini\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"%s\"}}]}\n\n", c)
		}
		fmt.Fprint(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4o-mini\",\"choices\":[],\"usage\":{\"prompt_tokens\":5,\"completion_tokens\":3,\"total_tokens\":8}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	g, err := New(context.Background(), Config{
		Provider: "openai",
		Model:    "gpt-4o-mini",
		APIKey:   "sk-test",
		BaseURL:  server.URL + "/v1",
	}, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	var out festivalResult
	require.NoError(t, g.GenerateStreamObject(context.Background(), festivalRequest("p"), &out))
	assert.Equal(t, "Primavera Sound", out.Name)
}

func TestOpenAIBackend_ServerErrorIsRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"upstream exploded","type":"server_error"}}`)
	}))
	defer server.Close()

	g, err := New(context.Background(), Config{
		Provider: "openai",
		Model:    "gpt-4o-mini",
		APIKey:   "sk-test",
		BaseURL:  server.URL + "/v1",
	}, nil, logger.NewTestLogger(t), WithRetryPolicy(noSleepPolicy(2)))
	require.NoError(t, err)

	var out festivalResult
	err = g.GenerateObject(context.Background(), festivalRequest("p"), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROVIDER_CALL_FAILED")
	assert.Equal(t, 2, calls)
}

func TestGeminiBackend_StructuredCompletion(t *testing.T) {
	var (
		path     string
		captured map[string]interface{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
		  "candidates": [{"content": {"role": "model", "parts": [{"text": "{\"name\":\"Dekmantel\"}"}]}, "finishReason": "STOP"}],
		  "usageMetadata": {"promptTokenCount": 4, "candidatesTokenCount": 3, "totalTokenCount": 7},
		  "modelVersion": "gemini-2.0-flash-001"
		}`)
	}))
	defer server.Close()

	g, err := New(context.Background(), Config{
		Provider: "gemini",
		Model:    "gemini-2.0-flash",
		APIKey:   "g-test",
		BaseURL:  server.URL,
	}, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	req := festivalRequest("extract")
	req.Files = []File{{URI: "gs://bucket/lineup.pdf", MIMEType: "application/pdf"}}
	got, err := Object[festivalResult](context.Background(), g, req)
	require.NoError(t, err)
	assert.Equal(t, "Dekmantel", got.Name)

	assert.True(t, strings.HasSuffix(path, "models/gemini-2.0-flash:generateContent"), path)
	genCfg, ok := captured["generationConfig"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
	assert.NotNil(t, genCfg["responseJsonSchema"])
}

func TestFilesToParts(t *testing.T) {
	parts := filesToParts([]File{
		{URI: "https://example.com/poster.png", MIMEType: "image/png"},
		{Data: []byte{0x89, 0x50}, MIMEType: "IMAGE/PNG"},
		{URI: "https://example.com/lineup.pdf", MIMEType: "application/pdf"},
		{Data: []byte("Friday: Bicep"), MIMEType: "text/plain"},
	})
	require.Len(t, parts, 4)

	assert.Equal(t, "https://example.com/poster.png", parts[0].ImageURL.URL)
	assert.True(t, strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,"))
	assert.Equal(t, "Source document (application/pdf): https://example.com/lineup.pdf", parts[2].Text)
	assert.Equal(t, "Friday: Bicep", parts[3].Text)
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "result", schemaName(""))
	assert.Equal(t, "artist_profile", schemaName("artist profile"))
	assert.Equal(t, "festival-lineup_v2", schemaName("festival-lineup.v2"))
}
