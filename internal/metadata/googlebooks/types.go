package googlebooks

import (
	"strings"

	"github.com/listenupapp/shelf/internal/metadata"
)

type volumesResponse struct {
	Items      []volume `json:"items"`
	TotalItems int      `json:"totalItems"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	ImageLinks          *imageLinks          `json:"imageLinks"`
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	Authors             []string             `json:"authors"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

func (v *volumeInfo) candidate() metadata.Candidate {
	c := metadata.Candidate{
		Title:         v.Title,
		Authors:       v.Authors,
		Publisher:     v.Publisher,
		PublishedDate: v.PublishedDate,
		Description:   v.Description,
		ISBN:          v.isbn(),
	}
	if v.ImageLinks != nil {
		thumb := v.ImageLinks.Thumbnail
		if thumb == "" {
			thumb = v.ImageLinks.SmallThumbnail
		}
		// Thumbnails come back as http:// URLs that also serve over TLS.
		c.ThumbnailURL = strings.Replace(thumb, "http://", "https://", 1)
	}
	return c
}

// isbn prefers ISBN-13 over ISBN-10.
func (v *volumeInfo) isbn() string {
	var isbn10 string
	for _, id := range v.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			isbn10 = id.Identifier
		}
	}
	return isbn10
}
