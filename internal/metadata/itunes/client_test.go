package itunes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelf/internal/logger"
	"github.com/listenupapp/shelf/internal/metadata"
)

const duneLookup = `{
  "resultCount": 2,
  "results": [
    {
      "kind": "ebook",
      "trackId": 395533413,
      "trackName": "Dune",
      "artistName": "Frank Herbert",
      "description": "Set on the desert planet <b>Arrakis</b>.",
      "releaseDate": "1990-09-01T07:00:00Z",
      "artworkUrl60": "https://is1-ssl.mzstatic.com/image/thumb/Publication/v4/dune/60x60bb.jpg",
      "artworkUrl100": "http://is1-ssl.mzstatic.com/image/thumb/Publication/v4/dune/100x100bb.jpg"
    },
    {"wrapperType": "audiobook", "collectionName": "Dune (Unabridged)"}
  ]
}`

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	c := New(logger.Discard().Logger)
	t.Cleanup(c.Close)
	return c
}

func TestClient_ByISBN(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder("GET", `=~^https://itunes\.apple\.com/lookup`,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "9780441013593", req.URL.Query().Get("isbn"))
			assert.Equal(t, "us", req.URL.Query().Get("country"))
			return httpmock.NewStringResponse(http.StatusOK, duneLookup), nil
		})

	cands, err := c.ByISBN(context.Background(), "9780441013593")
	require.NoError(t, err)
	require.Len(t, cands, 1, "non-ebook results are dropped")

	got := cands[0]
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, []string{"Frank Herbert"}, got.Authors)
	assert.Equal(t, "1990-09-01", got.PublishedDate)
	assert.Equal(t, "9780441013593", got.ISBN)
	assert.Equal(t, "https://is1-ssl.mzstatic.com/image/thumb/Publication/v4/dune/600x600bb.jpg", got.ThumbnailURL)
	assert.Empty(t, got.Publisher)
}

func TestClient_ByTitle(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder("GET", `=~^https://itunes\.apple\.com/search`,
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			assert.Equal(t, "dune", q.Get("term"))
			assert.Equal(t, "ebook", q.Get("media"))
			assert.Equal(t, "ebook", q.Get("entity"))
			return httpmock.NewStringResponse(http.StatusOK, duneLookup), nil
		})

	cands, err := c.ByTitle(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Empty(t, cands[0].ISBN)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, wantErr: metadata.ErrNotFound},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: metadata.ErrRateLimited},
		{name: "malformed", status: http.StatusOK, body: `{"results": [`, wantErr: metadata.ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newMockedClient(t)
			httpmock.RegisterResponder("GET", `=~^https://itunes\.apple\.com/lookup`,
				httpmock.NewStringResponder(tt.status, tt.body))

			_, err := c.ByISBN(context.Background(), "9780441013593")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var merr *metadata.Error
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, Name, merr.Provider)
			assert.Equal(t, "isbn", merr.Op)
		})
	}
}

func TestClient_BaseURLAndCountry(t *testing.T) {
	var gotCountry string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCountry = r.URL.Query().Get("country")
		assert.Equal(t, "/lookup", r.URL.Path)
		_, _ = w.Write([]byte(duneLookup))
	}))
	defer srv.Close()

	c := New(logger.Discard().Logger,
		WithBaseURL(srv.URL+"/"),
		WithCountry("GB"),
		WithHTTPClient(srv.Client()))
	defer c.Close()

	cands, err := c.ByISBN(context.Background(), "9780441013593")
	require.NoError(t, err)
	assert.Len(t, cands, 1)
	assert.Equal(t, "gb", gotCountry)
}

func TestCoverURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"https://is1.mzstatic.com/a/100x100bb.jpg", "https://is1.mzstatic.com/a/600x600bb.jpg"},
		{"http://is1.mzstatic.com/a/60x60bb.png", "https://is1.mzstatic.com/a/600x600bb.jpg"},
		{"https://example.com/cover.jpg", "https://example.com/cover.jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CoverURL(tt.in), tt.in)
	}
}
