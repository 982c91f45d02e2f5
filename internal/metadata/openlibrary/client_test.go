package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelf/internal/logger"
	"github.com/listenupapp/shelf/internal/metadata"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(logger.Discard().Logger, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	t.Cleanup(c.Close)
	return c
}

func TestClient_ByISBN(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/books", r.URL.Path)
		assert.Equal(t, "ISBN:9780441013593", r.URL.Query().Get("bibkeys"))
		assert.Equal(t, "data", r.URL.Query().Get("jscmd"))
		_, _ = w.Write([]byte(`{
			"ISBN:9780441013593": {
				"title": "Dune",
				"authors": [{"url": "https://openlibrary.org/authors/OL79034A", "name": "Frank Herbert"}],
				"publishers": [{"name": "Ace Books"}],
				"publish_date": "2005",
				"notes": {"type": "/type/text", "value": "40th anniversary edition"},
				"cover": {"small": "s.jpg", "medium": "m.jpg", "large": "l.jpg"},
				"identifiers": {"isbn_13": ["9780441013593"]}
			}
		}`))
	})

	cands, err := c.ByISBN(context.Background(), "9780441013593")
	require.NoError(t, err)
	require.Len(t, cands, 1)

	got := cands[0]
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, []string{"Frank Herbert"}, got.Authors)
	assert.Equal(t, "Ace Books", got.Publisher)
	assert.Equal(t, "2005", got.PublishedDate)
	assert.Equal(t, "40th anniversary edition", got.Description)
	assert.Equal(t, "m.jpg", got.ThumbnailURL)
	assert.Equal(t, "9780441013593", got.ISBN)
}

func TestClient_ByISBN_Unknown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	cands, err := c.ByISBN(context.Background(), "0000000000")
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestClient_ByTitle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "the hobbit", r.URL.Query().Get("title"))
		_, _ = w.Write([]byte(`{
			"numFound": 1,
			"docs": [{
				"key": "/works/OL262758W",
				"title": "The Hobbit",
				"author_name": ["J.R.R. Tolkien"],
				"isbn": ["9780547928227", "054792822X"],
				"publisher": ["Houghton Mifflin"],
				"first_publish_year": 1937,
				"cover_i": 6979861
			}]
		}`))
	})

	cands, err := c.ByTitle(context.Background(), "the hobbit")
	require.NoError(t, err)
	require.Len(t, cands, 1)

	got := cands[0]
	assert.Equal(t, "The Hobbit", got.Title)
	assert.Equal(t, "1937", got.PublishedDate)
	assert.Equal(t, "9780547928227", got.ISBN)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/6979861-M.jpg", got.ThumbnailURL)
	assert.Empty(t, got.Description)
}

func TestClient_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.ByTitle(context.Background(), "dune")
	assert.ErrorIs(t, err, metadata.ErrServer)
}

func TestTextValue(t *testing.T) {
	assert.Equal(t, "plain", textValue([]byte(`"plain"`)))
	assert.Equal(t, "typed", textValue([]byte(`{"type":"/type/text","value":"typed"}`)))
	assert.Empty(t, textValue(nil))
	assert.Empty(t, textValue([]byte(`42`)))
}
