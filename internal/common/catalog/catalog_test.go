package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"festival-workers/internal/common/resilience"
	"festival-workers/internal/models"
)

const artistJSON = `{
  "id": "4tZwfgrHOc3mvqYlEYSvVi",
  "name": "Daft Punk",
  "genres": ["French House", "electro"],
  "popularity": 78,
  "images": [{"url": "https://i.scdn.co/image/large", "width": 640, "height": 640}, {"url": "https://i.scdn.co/image/small", "width": 64, "height": 64}],
  "followers": {"total": 9000000},
  "external_urls": {"spotify": "https://open.spotify.com/artist/4tZwfgrHOc3mvqYlEYSvVi"}
}`

type fakeSpotify struct {
	server      *httptest.Server
	tokenCalls  atomic.Int32
	expiresIn   atomic.Int32
	tokenStatus atomic.Int32
	rejectFirst atomic.Bool
}

func newFakeSpotify(t *testing.T) *fakeSpotify {
	t.Helper()
	f := &fakeSpotify{}
	f.expiresIn.Store(3600)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		n := f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if code := f.tokenStatus.Load(); code != 0 {
			w.WriteHeader(int(code))
			fmt.Fprint(w, `{"error":"invalid_client"}`)
			return
		}
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"Bearer","expires_in":%d}`, n, f.expiresIn.Load())
	})
	mux.HandleFunc("/v1/artists/", func(w http.ResponseWriter, r *http.Request) {
		if f.rejectFirst.CompareAndSwap(true, false) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Contains(t, r.Header.Get("Authorization"), "Bearer tok-")
		if r.URL.Path != "/v1/artists/4tZwfgrHOc3mvqYlEYSvVi" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"status":404,"message":"non existing id"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, artistJSON)
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "artist", r.URL.Query().Get("type"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "Daft Punk":
			fmt.Fprintf(w, `{"artists":{"items":[%s]}}`, artistJSON)
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			fmt.Fprint(w, `{"artists":{"items":[]}}`)
		}
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSpotify) client() *SpotifyClient {
	return NewSpotify(SpotifyConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      f.server.URL,
		AuthURL:      f.server.URL + "/api/token",
		Timeout:      2 * time.Second,
	})
}

func TestSpotify_GetByID(t *testing.T) {
	f := newFakeSpotify(t)
	c := f.client()

	artist, err := c.GetByID(context.Background(), "4tZwfgrHOc3mvqYlEYSvVi")
	require.NoError(t, err)
	assert.Equal(t, &models.CatalogArtist{
		ID:            "4tZwfgrHOc3mvqYlEYSvVi",
		Name:          "Daft Punk",
		Genres:        []string{"French House", "electro"},
		ImageURL:      "https://i.scdn.co/image/large",
		Popularity:    78,
		FollowerCount: 9000000,
		CanonicalURL:  "https://open.spotify.com/artist/4tZwfgrHOc3mvqYlEYSvVi",
	}, artist)
}

func TestSpotify_TokenIsCached(t *testing.T) {
	f := newFakeSpotify(t)
	c := f.client()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.GetByID(ctx, "4tZwfgrHOc3mvqYlEYSvVi")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, f.tokenCalls.Load())
}

func TestSpotify_ShortLivedTokenIsRefetched(t *testing.T) {
	f := newFakeSpotify(t)
	f.expiresIn.Store(1)
	c := f.client()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.GetByID(ctx, "4tZwfgrHOc3mvqYlEYSvVi")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, f.tokenCalls.Load())
}

func TestSpotify_RefreshesTokenOnUnauthorized(t *testing.T) {
	f := newFakeSpotify(t)
	c := f.client()
	f.rejectFirst.Store(true)

	_, err := c.GetByID(context.Background(), "4tZwfgrHOc3mvqYlEYSvVi")
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.tokenCalls.Load())

	// The refreshed token is reused afterwards.
	_, err = c.GetByID(context.Background(), "4tZwfgrHOc3mvqYlEYSvVi")
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.tokenCalls.Load())
}

func TestSpotify_TokenExchangeRejected(t *testing.T) {
	f := newFakeSpotify(t)
	f.tokenStatus.Store(http.StatusUnauthorized)
	c := f.client()

	_, err := c.SearchByName(context.Background(), "Daft Punk")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	var retrieve *oauth2.RetrieveError
	require.ErrorAs(t, err, &retrieve)
	assert.Equal(t, http.StatusUnauthorized, retrieve.Response.StatusCode)
}

func TestSpotify_NotFound(t *testing.T) {
	f := newFakeSpotify(t)
	c := f.client()
	ctx := context.Background()

	_, err := c.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.SearchByName(ctx, "Nobody At All")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetByID(ctx, "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSpotify_SearchByName(t *testing.T) {
	f := newFakeSpotify(t)
	c := f.client()

	artist, err := c.SearchByName(context.Background(), "Daft Punk")
	require.NoError(t, err)
	assert.Equal(t, "4tZwfgrHOc3mvqYlEYSvVi", artist.ID)
	assert.Equal(t, 9000000, artist.FollowerCount)
}

func TestSpotify_ServerError(t *testing.T) {
	f := newFakeSpotify(t)
	c := f.client()

	_, err := c.SearchByName(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "500")
}

type stubClient struct {
	calls int
	err   error
}

func (s *stubClient) GetByID(_ context.Context, id string) (*models.CatalogArtist, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.CatalogArtist{ID: id}, nil
}

func (s *stubClient) SearchByName(_ context.Context, name string) (*models.CatalogArtist, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.CatalogArtist{Name: name}, nil
}

func TestBreakerClient_OpensOnFailures(t *testing.T) {
	stub := &stubClient{err: errors.New("connection refused")}
	c := NewBreakerClient(stub, resilience.BreakerSettings{
		Name:             "catalog-test-open",
		FailureThreshold: 3,
		ResetTimeout:     time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.SearchByName(ctx, "x")
		require.Error(t, err)
	}
	assert.Equal(t, resilience.StateOpen, c.State())

	_, err := c.GetByID(ctx, "x")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 3, stub.calls)
}

func TestBreakerClient_NotFoundIsHealthy(t *testing.T) {
	stub := &stubClient{err: ErrNotFound}
	c := NewBreakerClient(stub, resilience.BreakerSettings{
		Name:             "catalog-test-notfound",
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
	})

	for i := 0; i < 5; i++ {
		_, err := c.GetByID(context.Background(), "x")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, resilience.StateClosed, c.State())
	assert.Equal(t, 5, stub.calls)
}
