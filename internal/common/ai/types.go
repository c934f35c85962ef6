// Package ai is the single gateway over the generative-AI providers. One
// Gateway is bound to one provider and model for its lifetime.
package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"festival-workers/internal/common/config"
)

// Provider is the closed set of supported backends.
type Provider string

const (
	ProviderOpenAI               Provider = "openai"
	ProviderGemini               Provider = "gemini"
	ProviderVertex               Provider = "vertex"
	ProviderVertexServiceAccount Provider = "vertex-service-account"
)

// ParseProvider accepts the config spelling of a provider.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderOpenAI, ProviderGemini, ProviderVertex, ProviderVertexServiceAccount:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported AI provider %q", s)
	}
}

const (
	DefaultMaxTokens   = 30000
	DefaultTemperature = 0.8
	DefaultCacheTTL    = 72 * time.Hour
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultTimeout     = 2 * time.Minute
	DefaultLocation    = "us-central1"
)

type Config struct {
	Provider string
	Model    string
	BaseURL  string // overrides the provider endpoint

	APIKey string

	ProjectID    string
	Location     string
	ClientEmail  string
	PrivateKey   string
	PrivateKeyID string

	MaxTokens   int
	Temperature *float64 // nil selects DefaultTemperature
	Timeout     time.Duration
	MaxRetries  *int // nil selects DefaultMaxRetries; zero disables retries
	CacheTTL    time.Duration
}

// ConfigFromApp maps the loaded application config onto a gateway Config.
func ConfigFromApp(c config.AIConfig) Config {
	return Config{
		Provider:     c.Provider,
		Model:        c.Model,
		BaseURL:      c.BaseURL,
		APIKey:       c.APIKey,
		ProjectID:    c.ProjectID,
		Location:     c.Location,
		ClientEmail:  c.ClientEmail,
		PrivateKey:   c.PrivateKey,
		PrivateKeyID: c.PrivateKeyID,
		MaxTokens:    c.MaxTokens,
		Temperature:  c.Temperature,
		Timeout:      config.GetDuration(c.Timeout),
		MaxRetries:   c.MaxRetries,
		CacheTTL:     time.Duration(c.CacheTTL) * time.Second,
	}
}

func (c *Config) applyDefaults() {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature == nil {
		c.Temperature = ptr(DefaultTemperature)
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	switch {
	case c.MaxRetries == nil:
		c.MaxRetries = ptr(DefaultMaxRetries)
	case *c.MaxRetries < 0:
		c.MaxRetries = ptr(0)
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.Location == "" {
		c.Location = DefaultLocation
	}
}

func ptr[T any](v T) *T { return &v }

// missingCredentials lists the settings p needs that c lacks.
func (c *Config) missingCredentials(p Provider) []string {
	var missing []string
	need := func(v, name string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}

	need(c.Model, "model")
	switch p {
	case ProviderOpenAI, ProviderGemini:
		need(c.APIKey, "apiKey")
	case ProviderVertex:
		need(c.ProjectID, "projectId")
	case ProviderVertexServiceAccount:
		need(c.ProjectID, "projectId")
		need(c.ClientEmail, "clientEmail")
		need(c.PrivateKey, "privateKey")
		need(c.PrivateKeyID, "privateKeyId")
	}
	return missing
}

// File is an attachment. Exactly one of URI or Data is set.
type File struct {
	URI      string `json:"uri,omitempty"`
	Data     []byte `json:"data,omitempty"`
	MIMEType string `json:"mimeType"`
}

type Request struct {
	Prompt       string
	SystemPrompt string
	Files        []File
	// UseCache allows answering from the response cache. It is not part of
	// the cache key.
	UseCache bool
}

// SchemaRequest asks for a JSON value satisfying Schema (draft-07).
type SchemaRequest struct {
	Request
	Name   string
	Schema json.RawMessage
}

type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

type Response struct {
	Model   string `json:"model"`
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

func validateFiles(files []File) error {
	for i, f := range files {
		if (f.URI == "") == (len(f.Data) == 0) {
			return fmt.Errorf("file %d must set exactly one of uri or data", i)
		}
		if f.MIMEType == "" {
			return fmt.Errorf("file %d has no mime type", i)
		}
	}
	return nil
}
