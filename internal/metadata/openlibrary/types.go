package openlibrary

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/listenupapp/shelf/internal/metadata"
)

// bookDetails matches one entry of /api/books?jscmd=data.
type bookDetails struct {
	Cover       *cover          `json:"cover"`
	Identifiers *identifiers    `json:"identifiers"`
	Notes       json.RawMessage `json:"notes"`
	Title       string          `json:"title"`
	PublishDate string          `json:"publish_date"`
	Publishers  []named         `json:"publishers"`
	Authors     []named         `json:"authors"`
}

type named struct {
	Name string `json:"name"`
}

type cover struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

type identifiers struct {
	ISBN13 []string `json:"isbn_13"`
	ISBN10 []string `json:"isbn_10"`
}

func (d *bookDetails) candidate() metadata.Candidate {
	c := metadata.Candidate{
		Title:         d.Title,
		PublishedDate: d.PublishDate,
		Description:   textValue(d.Notes),
	}
	for _, a := range d.Authors {
		c.Authors = append(c.Authors, a.Name)
	}
	if len(d.Publishers) > 0 {
		c.Publisher = d.Publishers[0].Name
	}
	if d.Cover != nil {
		switch {
		case d.Cover.Medium != "":
			c.ThumbnailURL = d.Cover.Medium
		case d.Cover.Large != "":
			c.ThumbnailURL = d.Cover.Large
		default:
			c.ThumbnailURL = d.Cover.Small
		}
	}
	if d.Identifiers != nil {
		switch {
		case len(d.Identifiers.ISBN13) > 0:
			c.ISBN = d.Identifiers.ISBN13[0]
		case len(d.Identifiers.ISBN10) > 0:
			c.ISBN = d.Identifiers.ISBN10[0]
		}
	}
	return c
}

// textValue decodes a field that is either a plain string or {"type": ..., "value": ...}.
func textValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var typed struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &typed); err == nil {
		return typed.Value
	}
	return ""
}

// searchResponse matches /search.json.
type searchResponse struct {
	Docs     []searchDoc `json:"docs"`
	NumFound int         `json:"numFound"`
}

type searchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_name"`
	ISBN             []string `json:"isbn"`
	Publisher        []string `json:"publisher"`
	FirstPublishYear int      `json:"first_publish_year"`
	CoverID          int      `json:"cover_i"`
}

func (d *searchDoc) candidate(coverBase string) metadata.Candidate {
	c := metadata.Candidate{
		Title:   d.Title,
		Authors: d.AuthorNames,
	}
	if d.FirstPublishYear > 0 {
		c.PublishedDate = strconv.Itoa(d.FirstPublishYear)
	}
	if len(d.Publisher) > 0 {
		c.Publisher = d.Publisher[0]
	}
	if len(d.ISBN) > 0 {
		c.ISBN = d.ISBN[0]
	}
	if d.CoverID > 0 {
		c.ThumbnailURL = fmt.Sprintf("%s/b/id/%d-M.jpg", coverBase, d.CoverID)
	}
	return c
}
