package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"festival-workers/internal/common/config"
	httpclient "festival-workers/internal/common/http"
	"festival-workers/internal/common/metrics"
	"festival-workers/internal/models"
)

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	AuthURL      string
	Timeout      time.Duration
}

func SpotifyConfigFromApp(c config.CatalogConfig) SpotifyConfig {
	return SpotifyConfig{
		ClientID:     c.Spotify.ClientID,
		ClientSecret: c.Spotify.ClientSecret,
		BaseURL:      c.Spotify.BaseURL,
		AuthURL:      c.Spotify.AuthURL,
		Timeout:      config.GetDuration(c.Spotify.Timeout),
	}
}

// SpotifyClient implements Client over the Spotify Web API with the
// client-credentials flow.
type SpotifyClient struct {
	cfg   SpotifyConfig
	http  *httpclient.Client
	oauth *clientcredentials.Config

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

func NewSpotify(cfg SpotifyConfig) *SpotifyClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.spotify.com"
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = "https://accounts.spotify.com/api/token"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c := &SpotifyClient{
		cfg:  cfg,
		http: httpclient.NewClient(cfg.Timeout),
	}
	c.oauth = &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.AuthURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	c.tokens = c.newTokenSource()
	return c
}

// newTokenSource returns a caching source that exchanges credentials over
// the client's own transport.
func (c *SpotifyClient) newTokenSource() oauth2.TokenSource {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http.HTTPClient())
	return c.oauth.TokenSource(ctx)
}

type spotifyArtist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Images     []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"images"`
	Followers struct {
		Total int `json:"total"`
	} `json:"followers"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (a *spotifyArtist) toModel() *models.CatalogArtist {
	out := &models.CatalogArtist{
		ID:            a.ID,
		Name:          a.Name,
		Genres:        a.Genres,
		Popularity:    a.Popularity,
		FollowerCount: a.Followers.Total,
		CanonicalURL:  a.ExternalURLs.Spotify,
	}
	// Images are ordered widest first.
	if len(a.Images) > 0 {
		out.ImageURL = a.Images[0].URL
	}
	if out.Genres == nil {
		out.Genres = []string{}
	}
	return out
}

func (c *SpotifyClient) GetByID(ctx context.Context, id string) (*models.CatalogArtist, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	var artist spotifyArtist
	err := c.get(ctx, c.cfg.BaseURL+"/v1/artists/"+url.PathEscape(id), &artist)
	if err != nil {
		return nil, c.count("get_by_id", err)
	}
	c.count("get_by_id", nil)
	return artist.toModel(), nil
}

func (c *SpotifyClient) SearchByName(ctx context.Context, name string) (*models.CatalogArtist, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNotFound
	}
	q := url.Values{}
	q.Set("q", name)
	q.Set("type", "artist")
	q.Set("limit", "1")

	var result struct {
		Artists struct {
			Items []spotifyArtist `json:"items"`
		} `json:"artists"`
	}
	if err := c.get(ctx, c.cfg.BaseURL+"/v1/search?"+q.Encode(), &result); err != nil {
		return nil, c.count("search", err)
	}
	if len(result.Artists.Items) == 0 {
		return nil, c.count("search", ErrNotFound)
	}
	c.count("search", nil)
	return result.Artists.Items[0].toModel(), nil
}

// get performs an authorized GET, refreshing the token once on 401.
func (c *SpotifyClient) get(ctx context.Context, rawURL string, out interface{}) error {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.accessToken()
		if err != nil {
			return err
		}
		headers := http.Header{"Authorization": {"Bearer " + token}}
		err = c.http.GetJSON(ctx, rawURL, headers, out)

		var status *httpclient.StatusError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &status) && status.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case errors.As(err, &status) && status.StatusCode == http.StatusUnauthorized && attempt == 0:
			c.resetToken()
			continue
		default:
			return fmt.Errorf("spotify request failed: %w", err)
		}
	}
	return errors.New("spotify rejected the refreshed token")
}

func (c *SpotifyClient) accessToken() (string, error) {
	c.mu.Lock()
	tokens := c.tokens
	c.mu.Unlock()

	tok, err := tokens.Token()
	if err != nil {
		return "", fmt.Errorf("spotify token request failed: %w", err)
	}
	return tok.AccessToken, nil
}

// resetToken drops the cached token so the next call exchanges again.
func (c *SpotifyClient) resetToken() {
	c.mu.Lock()
	c.tokens = c.newTokenSource()
	c.mu.Unlock()
}

func (c *SpotifyClient) count(method string, err error) error {
	result := "found"
	switch {
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	metrics.CatalogLookups.WithLabelValues(method, result).Inc()
	return err
}
