package itunes

import (
	"github.com/listenupapp/shelf/internal/metadata"
)

// searchResponse is the raw iTunes API response. Lookup and search share it.
type searchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []searchResult `json:"results"`
}

type searchResult struct {
	Kind          string `json:"kind"`
	WrapperType   string `json:"wrapperType"`
	TrackID       int64  `json:"trackId"`
	TrackName     string `json:"trackName"`
	ArtistName    string `json:"artistName"`
	Description   string `json:"description"`
	ReleaseDate   string `json:"releaseDate"`
	ArtworkURL60  string `json:"artworkUrl60"`
	ArtworkURL100 string `json:"artworkUrl100"`
}

func (r *searchResult) isBook() bool {
	return r.Kind == "ebook" || r.WrapperType == "ebook"
}

// candidate maps an ebook result. isbn is only known on lookups.
func (r *searchResult) candidate(isbn string) metadata.Candidate {
	c := metadata.Candidate{
		Title:         r.TrackName,
		Description:   r.Description,
		PublishedDate: releaseDay(r.ReleaseDate),
		ISBN:          isbn,
	}
	if r.ArtistName != "" {
		c.Authors = []string{r.ArtistName}
	}
	artwork := r.ArtworkURL100
	if artwork == "" {
		artwork = r.ArtworkURL60
	}
	c.ThumbnailURL = CoverURL(artwork)
	return c
}

// releaseDay trims an RFC 3339 timestamp to its date.
func releaseDay(s string) string {
	if len(s) >= len("2006-01-02") {
		return s[:len("2006-01-02")]
	}
	return s
}
