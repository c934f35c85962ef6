package ai

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

const (
	kindCompletion = "completion"
	kindObject     = "object"

	cacheKeyPrefix = "ai:"
)

type keyFile struct {
	URI        string `json:"uri,omitempty"`
	DataSHA256 string `json:"dataSha256,omitempty"`
	MIMEType   string `json:"mimeType"`
}

// keyMaterial is everything that changes the answer. Field order is fixed
// by the struct, so the encoding is deterministic.
type keyMaterial struct {
	Provider     Provider        `json:"provider"`
	Model        string          `json:"model"`
	Prompt       string          `json:"prompt"`
	SystemPrompt string          `json:"systemPrompt,omitempty"`
	Files        []keyFile       `json:"files,omitempty"`
	Schema       json.RawMessage `json:"schema,omitempty"`
}

// CacheKey derives ai:<kind>:<sha256>. schema must already be canonical.
func CacheKey(kind string, provider Provider, model string, req Request, schema json.RawMessage) string {
	m := keyMaterial{
		Provider:     provider,
		Model:        model,
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		Schema:       schema,
	}
	for _, f := range req.Files {
		kf := keyFile{URI: f.URI, MIMEType: strings.ToLower(f.MIMEType)}
		if len(f.Data) > 0 {
			sum := sha256.Sum256(f.Data)
			kf.DataSHA256 = hex.EncodeToString(sum[:])
		}
		m.Files = append(m.Files, kf)
	}

	// Marshal of this struct cannot fail: every field is a string or
	// already-valid JSON.
	raw, _ := json.Marshal(m)
	sum := sha256.Sum256(raw)
	return cacheKeyPrefix + kind + ":" + hex.EncodeToString(sum[:])
}
