package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"google.golang.org/genai"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

type genAIBackend struct {
	client *genai.Client
	model  string
}

func newGenAIBackend(ctx context.Context, p Provider, cfg Config) (backend, error) {
	clientCfg := &genai.ClientConfig{}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	switch p {
	case ProviderGemini:
		clientCfg.APIKey = cfg.APIKey
		clientCfg.Backend = genai.BackendGeminiAPI
	case ProviderVertex:
		clientCfg.Project = cfg.ProjectID
		clientCfg.Location = cfg.Location
		clientCfg.Backend = genai.BackendVertexAI
	case ProviderVertexServiceAccount:
		creds, err := serviceAccountCredentials(cfg)
		if err != nil {
			return backend{}, err
		}
		clientCfg.Project = cfg.ProjectID
		clientCfg.Location = cfg.Location
		clientCfg.Backend = genai.BackendVertexAI
		clientCfg.Credentials = creds
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return backend{}, fmt.Errorf("failed to create genai client: %w", err)
	}

	b := &genAIBackend{client: client, model: cfg.Model}
	return backend{
		provider: p,
		model:    cfg.Model,
		complete: b.complete,
		stream:   b.stream,
	}, nil
}

// serviceAccountCredentials builds credentials from the explicit key triple
// instead of the ambient ADC lookup.
func serviceAccountCredentials(cfg Config) (*auth.Credentials, error) {
	keyJSON, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     cfg.ProjectID,
		"private_key_id": cfg.PrivateKeyID,
		// Env files commonly carry the PEM with escaped newlines.
		"private_key":  strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n"),
		"client_email": cfg.ClientEmail,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, err
	}
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: keyJSON,
		Scopes:          []string{cloudPlatformScope},
	})
	if err != nil {
		return nil, fmt.Errorf("invalid service account credentials: %w", err)
	}
	return creds, nil
}

func (b *genAIBackend) request(c *call) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	parts := []*genai.Part{genai.NewPartFromText(c.prompt)}
	for _, f := range c.files {
		if f.URI != "" {
			parts = append(parts, genai.NewPartFromURI(f.URI, f.MIMEType))
		} else {
			parts = append(parts, genai.NewPartFromBytes(f.Data, f.MIMEType))
		}
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	gc := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(c.maxTokens),
		Temperature:     genai.Ptr(float32(c.temperature)),
	}
	if c.systemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(c.systemPrompt, genai.RoleUser)
	}
	if c.schema != nil {
		schema, err := schemaObject(c.schema)
		if err != nil {
			return nil, nil, err
		}
		gc.ResponseMIMEType = "application/json"
		gc.ResponseJsonSchema = schema
	}
	return contents, gc, nil
}

func (b *genAIBackend) complete(ctx context.Context, c *call) (*Response, error) {
	contents, gc, err := b.request(c)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, gc)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.New("genai returned no candidates")
	}

	out := &Response{Model: b.model, Content: resp.Text()}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	out.Usage = genAIUsage(resp.UsageMetadata)
	return out, nil
}

func (b *genAIBackend) stream(ctx context.Context, c *call, onChunk func()) (*Response, error) {
	contents, gc, err := b.request(c)
	if err != nil {
		return nil, err
	}

	out := &Response{Model: b.model}
	var sb strings.Builder
	for resp, err := range b.client.Models.GenerateContentStream(ctx, b.model, contents, gc) {
		if err != nil {
			return nil, err
		}
		if resp.ModelVersion != "" {
			out.Model = resp.ModelVersion
		}
		if resp.UsageMetadata != nil {
			out.Usage = genAIUsage(resp.UsageMetadata)
		}
		if text := resp.Text(); text != "" {
			sb.WriteString(text)
			onChunk()
		}
	}
	out.Content = sb.String()
	return out, nil
}

func genAIUsage(u *genai.GenerateContentResponseUsageMetadata) Usage {
	if u == nil {
		return Usage{}
	}
	return Usage{
		PromptTokens:     int(u.PromptTokenCount),
		CompletionTokens: int(u.CandidatesTokenCount),
		TotalTokens:      int(u.TotalTokenCount),
	}
}
