package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type openAIBackend struct {
	client *openai.Client
	model  string
}

func newOpenAIBackend(cfg Config) backend {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	b := &openAIBackend{client: openai.NewClientWithConfig(clientCfg), model: cfg.Model}
	return backend{
		provider: ProviderOpenAI,
		model:    cfg.Model,
		complete: b.complete,
		stream:   b.stream,
	}
}

// openAITemperature keeps an explicit zero on the wire; the request field
// is omitempty.
func openAITemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func (b *openAIBackend) request(c *call) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       b.model,
		MaxTokens:   c.maxTokens,
		Temperature: openAITemperature(c.temperature),
	}

	if c.systemPrompt != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.systemPrompt,
		})
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(c.files) == 0 {
		user.Content = c.prompt
	} else {
		user.MultiContent = append([]openai.ChatMessagePart{{
			Type: openai.ChatMessagePartTypeText,
			Text: c.prompt,
		}}, filesToParts(c.files)...)
	}
	req.Messages = append(req.Messages, user)

	if c.schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName(c.schemaName),
				Schema: c.schema,
				// Strict mode needs every property listed as required.
				Strict: false,
			},
		}
	}
	return req
}

// filesToParts maps attachments onto chat parts. Chat completions cannot
// fetch arbitrary documents, so non-image URIs become text references and
// inline text is sent verbatim.
func filesToParts(files []File) []openai.ChatMessagePart {
	parts := make([]openai.ChatMessagePart, 0, len(files))
	for _, f := range files {
		mime := strings.ToLower(f.MIMEType)
		switch {
		case strings.HasPrefix(mime, "image/") && f.URI != "":
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: f.URI, Detail: openai.ImageURLDetailAuto},
			})
		case strings.HasPrefix(mime, "image/"):
			dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailAuto},
			})
		case f.URI != "":
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: fmt.Sprintf("Source document (%s): %s", mime, f.URI),
			})
		default:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: string(f.Data),
			})
		}
	}
	return parts
}

func (b *openAIBackend) complete(ctx context.Context, c *call) (*Response, error) {
	resp, err := b.client.CreateChatCompletion(ctx, b.request(c))
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}
	return &Response{
		Model:   resp.Model,
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (b *openAIBackend) stream(ctx context.Context, c *call, onChunk func()) (*Response, error) {
	req := b.request(c)
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := b.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	out := &Response{Model: b.model}
	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if chunk.Model != "" {
			out.Model = chunk.Model
		}
		if chunk.Usage != nil {
			out.Usage = Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			sb.WriteString(choice.Delta.Content)
			onChunk()
		}
	}
	out.Content = sb.String()
	return out, nil
}

// schemaName satisfies the OpenAI name charset [a-zA-Z0-9_-].
func schemaName(name string) string {
	if name == "" {
		return "result"
	}
	var sb strings.Builder
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
