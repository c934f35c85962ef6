package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCredentialFieldsAreRedacted(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.Info("provider configured", map[string]interface{}{
		"provider":    "openai",
		"apiKey":      "sk-secret",
		"privateKey":  "-----BEGIN",
		"totalTokens": 42,
	})

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "openai", ctx["provider"])
	assert.EqualValues(t, 42, ctx["totalTokens"])
	assert.Equal(t, redacted, ctx["apiKey"])
	assert.Equal(t, redacted, ctx["privateKey"])
}

func TestForWorkerAddsTaskType(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := ForWorker(NewZapAdapter(zap.New(core)), "enrich-artist")

	log.Warn("catalog skipped", nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "enrich-artist", logs.All()[0].ContextMap()["worker"])
}
