// internal/workers/festival/extract-lineup/handler.go
package extractlineup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"golang.org/x/sync/errgroup"

	"festival-workers/internal/common/ai"
	"festival-workers/internal/common/camunda"
	"festival-workers/internal/common/chunk"
	apperrors "festival-workers/internal/common/errors"
	"festival-workers/internal/common/repository"
	"festival-workers/internal/models"
)

const (
	TaskType = "extract-festival-lineup"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Handler struct {
	config   *Config
	gen      ai.ObjectGenerator
	repo     repository.FestivalRepository
	reporter *camunda.Reporter
	logger   Logger
}

// NewHandler builds the extraction worker. repo and observer may be nil.
func NewHandler(config *Config, gen ai.ObjectGenerator, repo repository.FestivalRepository, observer camunda.JobObserver, log Logger) *Handler {
	return &Handler{
		config:   config,
		gen:      gen,
		repo:     repo,
		reporter: camunda.NewReporter(TaskType, observer, log),
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := h.reporter.Begin(job)

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.reporter.Fail(context.Background(), client, job, started,
			apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.reporter.Fail(context.Background(), client, job, started, err)
		return
	}

	h.reporter.Complete(context.Background(), client, job, started, output)
}

// Execute extracts the festival and saves it when a repository is set.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	festival, chunks, err := h.extract(ctx, input.Inputs)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Festival:   *festival,
		ChunkCount: chunks,
		EntryCount: festival.EntryCount(),
	}
	if h.repo != nil {
		record := &models.Festival{ParsedFestival: *festival}
		if err := h.repo.Save(ctx, record); err != nil {
			return nil, err
		}
		out.FestivalID = record.ID
	}

	h.logger.Info("festival extracted", map[string]interface{}{
		"festival":   festival.Name,
		"days":       len(festival.Lineup),
		"entries":    out.EntryCount,
		"chunks":     chunks,
		"festivalId": out.FestivalID,
	})
	return out, nil
}

// Extract turns URLs and encoded files into one merged festival.
func (h *Handler) Extract(ctx context.Context, inputs []string) (*models.ParsedFestival, error) {
	festival, _, err := h.extract(ctx, inputs)
	return festival, err
}

func (h *Handler) extract(ctx context.Context, inputs []string) (*models.ParsedFestival, int, error) {
	sources, err := parseInputs(inputs)
	if err != nil {
		return nil, 0, apperrors.NewInvalidInputError(err.Error())
	}

	requests, err := h.plan(sources)
	if err != nil {
		return nil, 0, err
	}

	results := make([]models.ParsedFestival, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, h.config.MaxConcurrency))
	for i, req := range requests {
		g.Go(func() error {
			f, err := ai.Object[models.ParsedFestival](gctx, h.gen, req)
			if err != nil {
				return fmt.Errorf("chunk %d of %d: %w", i+1, len(requests), err)
			}
			results[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.logger.Error("festival extraction failed", map[string]interface{}{
			"chunks": len(requests),
			"error":  err.Error(),
		})
		return nil, 0, err
	}

	merged, err := mergeFestivals(results)
	if err != nil {
		return nil, 0, err
	}
	return merged, len(requests), nil
}

// plan builds one request, or one per window of the largest text input
// when the estimated size exceeds MaxInputTokens.
func (h *Handler) plan(sources []source) ([]ai.SchemaRequest, error) {
	total := (len(systemPrompt) + len(extractionPrompt(1, 1))) / CharsPerToken
	for _, s := range sources {
		total += s.tokens()
	}

	files := make([]ai.File, len(sources))
	for i, s := range sources {
		files[i] = s.file()
	}
	if total <= h.config.MaxInputTokens {
		return []ai.SchemaRequest{h.request(files, 1, 1)}, nil
	}

	target := largestText(sources)
	if target < 0 {
		h.logger.Warn("inputs exceed token budget but have no text to split", map[string]interface{}{
			"estimatedTokens": total,
			"maxInputTokens":  h.config.MaxInputTokens,
		})
		return []ai.SchemaRequest{h.request(files, 1, 1)}, nil
	}

	windows, err := chunk.Split(string(sources[target].data), h.config.ChunkSize, h.config.ChunkOverlap)
	if err != nil {
		return nil, apperrors.NewConfigurationError(err.Error())
	}

	h.logger.Debug("splitting oversized input", map[string]interface{}{
		"estimatedTokens": total,
		"input":           target,
		"chunks":          len(windows),
	})

	requests := make([]ai.SchemaRequest, len(windows))
	for i, w := range windows {
		chunkFiles := make([]ai.File, len(files))
		copy(chunkFiles, files)
		chunkFiles[target] = ai.File{Data: []byte(w), MIMEType: sources[target].mime}
		requests[i] = h.request(chunkFiles, i+1, len(windows))
	}
	return requests, nil
}

func (h *Handler) request(files []ai.File, part, parts int) ai.SchemaRequest {
	return ai.SchemaRequest{
		Request: ai.Request{
			Prompt:       extractionPrompt(part, parts),
			SystemPrompt: systemPrompt,
			Files:        files,
			UseCache:     h.config.UseCache,
		},
		Name:   schemaName,
		Schema: festivalSchema,
	}
}
