// internal/workers/artist/enrich-artist/handler.go
package enrichartist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"festival-workers/internal/common/ai"
	"festival-workers/internal/common/camunda"
	"festival-workers/internal/common/catalog"
	apperrors "festival-workers/internal/common/errors"
	"festival-workers/internal/common/merge"
	"festival-workers/internal/common/repository"
	"festival-workers/internal/models"
)

const (
	TaskType = "enrich-artist"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// EnrichmentError is returned when the AI step fails. Catalog holds the
// catalog view found before the failure, if any, for callers that accept
// catalog-only data.
type EnrichmentError struct {
	Artist  string
	Catalog *models.CatalogArtist
	Err     error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrich artist %q: %v", e.Artist, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

type Handler struct {
	config   *Config
	gen      ai.ObjectGenerator
	catalog  catalog.Client
	repo     repository.ArtistRepository
	reporter *camunda.Reporter
	logger   Logger
}

// NewHandler builds the enrichment worker. catalog, repo and observer may
// be nil.
func NewHandler(config *Config, gen ai.ObjectGenerator, cat catalog.Client, repo repository.ArtistRepository, observer camunda.JobObserver, log Logger) *Handler {
	return &Handler{
		config:   config,
		gen:      gen,
		catalog:  cat,
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

// Execute enriches the artist and saves it when a repository is set.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	artist, matched, err := h.enrich(ctx, input.ArtistName, EnrichOptions{
		CatalogID: input.CatalogID,
		Context:   input.Context,
	})
	if err != nil {
		return nil, err
	}

	if h.repo != nil {
		if err := h.repo.Save(ctx, artist); err != nil {
			return nil, err
		}
	}
	return &Output{Artist: *artist, CatalogMatched: matched}, nil
}

// Enrich combines the catalog view and an AI profile of the artist.
func (h *Handler) Enrich(ctx context.Context, name string, opts EnrichOptions) (*models.Artist, error) {
	artist, _, err := h.enrich(ctx, name, opts)
	return artist, err
}

func (h *Handler) enrich(ctx context.Context, name string, opts EnrichOptions) (*models.Artist, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, apperrors.NewInvalidInputError("artistName is required")
	}

	view := h.lookup(ctx, name, strings.TrimSpace(opts.CatalogID))

	catalogID := ""
	if view != nil {
		catalogID = view.ID
	}
	profile, err := ai.Object[models.AIArtist](ctx, h.gen, ai.SchemaRequest{
		Request: ai.Request{
			Prompt:       buildPrompt(name, catalogID, strings.TrimSpace(opts.Context)),
			SystemPrompt: systemPrompt,
			UseCache:     h.config.UseCache,
		},
		Name:   schemaName,
		Schema: artistSchema,
	})
	if err != nil {
		h.logger.Error("artist enrichment failed", map[string]interface{}{
			"artist":         name,
			"catalogMatched": view != nil,
			"error":          err.Error(),
		})
		return nil, view != nil, &EnrichmentError{Artist: name, Catalog: view, Err: err}
	}

	artist := reconcile(name, view, &profile)
	h.logger.Info("artist enriched", map[string]interface{}{
		"artist":         artist.Name,
		"catalogMatched": view != nil,
		"genres":         len(artist.Genre),
	})
	return artist, view != nil, nil
}

// lookup returns the catalog view or nil. Failures never abort enrichment.
func (h *Handler) lookup(ctx context.Context, name, id string) *models.CatalogArtist {
	if h.catalog == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.CatalogTimeout)
	defer cancel()

	var (
		view *models.CatalogArtist
		err  error
		by   = "name"
	)
	if id != "" {
		by = "id"
		view, err = h.catalog.GetByID(ctx, id)
	} else {
		view, err = h.catalog.SearchByName(ctx, name)
	}
	if err != nil {
		h.logger.Warn("catalog view unavailable", map[string]interface{}{
			"artist":    name,
			"lookupBy":  by,
			"catalogId": id,
			"error":     err.Error(),
		})
		return nil
	}
	return view
}

// reconcile merges the two views. With a catalog view, its name, image,
// Spotify URL, popularity and followers win; genres are the folded union,
// catalog first.
func reconcile(requested string, view *models.CatalogArtist, profile *models.AIArtist) *models.Artist {
	artist := &models.Artist{
		Name:           strings.TrimSpace(merge.FirstNonEmpty(profile.Name, requested)),
		Genre:          merge.FoldUnion(profile.Genre),
		Description:    strings.TrimSpace(profile.Description),
		ImageURL:       profile.ImageURL,
		Popularity:     profile.Popularity,
		SocialLinks:    profile.SocialLinks,
		StreamingLinks: profile.StreamingLinks,
	}
	if view == nil {
		return artist
	}

	popularity := view.Popularity
	artist.Name = strings.TrimSpace(merge.FirstNonEmpty(view.Name, requested))
	artist.Genre = merge.FoldUnion(view.Genres, profile.Genre)
	artist.ImageURL = view.ImageURL
	artist.StreamingLinks.Spotify = view.CanonicalURL
	artist.Popularity = &popularity
	artist.FollowerCount = view.FollowerCount
	artist.CatalogID = view.ID
	return artist
}
