// internal/workers/recommendation/recommend-artists/handler.go
package recommendartists

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"festival-workers/internal/common/ai"
	"festival-workers/internal/common/camunda"
	apperrors "festival-workers/internal/common/errors"
	"festival-workers/internal/common/merge"
	"festival-workers/internal/models"
)

const (
	TaskType = "recommend-artists"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Handler struct {
	config   *Config
	gen      ai.ObjectGenerator
	reporter *camunda.Reporter
	logger   Logger
}

func NewHandler(config *Config, gen ai.ObjectGenerator, observer camunda.JobObserver, log Logger) *Handler {
	return &Handler{
		config:   config,
		gen:      gen,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	recs, err := h.Recommend(ctx, input.Artists, input.Preferences)
	if err != nil {
		return nil, err
	}
	return &Output{Recommendations: recs, Count: len(recs)}, nil
}

// Recommend ranks roster artists for the listener, best first. A failed AI
// call yields no recommendations.
func (h *Handler) Recommend(ctx context.Context, artists []models.ArtistSummary, prefs models.Preferences) ([]models.Recommendation, error) {
	if len(artists) == 0 {
		return nil, apperrors.NewInvalidInputError("artists must not be empty")
	}
	mode, err := models.ParseDiscoveryMode(string(prefs.DiscoveryMode))
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	prompt, err := buildPrompt(artists, prefs, mode)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	result, err := ai.Object[answer](ctx, h.gen, ai.SchemaRequest{
		Request: ai.Request{
			Prompt:       prompt,
			SystemPrompt: systemPrompt,
			UseCache:     h.config.UseCache,
		},
		Name:   schemaName,
		Schema: recommendationSchema,
	})
	if err != nil {
		h.logger.Error("recommendation request failed", map[string]interface{}{
			"artists": len(artists),
			"error":   err.Error(),
		})
		return nil, err
	}

	recs := h.resolve(artists, result)
	h.logger.Info("recommendations ready", map[string]interface{}{
		"artists":         len(artists),
		"recommendations": len(recs),
		"discoveryMode":   string(mode),
	})
	return recs, nil
}

// resolve maps answers back to roster ids, drops unknown and repeated
// artists, clamps scores into [0,1] and sorts by score.
func (h *Handler) resolve(artists []models.ArtistSummary, result answer) []models.Recommendation {
	byName := make(map[string]models.ArtistSummary, len(artists))
	for _, a := range artists {
		key := merge.Fold(a.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = a
		}
	}

	seen := make(map[string]struct{})
	recs := make([]models.Recommendation, 0, len(result.Recommendations))
	for _, r := range result.Recommendations {
		artist, ok := byName[merge.Fold(r.ArtistName)]
		if !ok {
			h.logger.Warn("dropping recommendation for unknown artist", map[string]interface{}{
				"artistName": r.ArtistName,
			})
			continue
		}
		key := identity(artist)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		reasons := r.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		recs = append(recs, models.Recommendation{
			ArtistID:   artist.ID,
			ArtistName: artist.Name,
			Score:      clamp(r.Score),
			Reasons:    reasons,
			Tags:       trimAll(r.Tags),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	return recs
}

// identity keys a roster artist by id, or by folded name when it has none.
func identity(a models.ArtistSummary) string {
	if a.ID != "" {
		return "id:" + a.ID
	}
	return "name:" + merge.Fold(a.Name)
}

func clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

func trimAll(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
