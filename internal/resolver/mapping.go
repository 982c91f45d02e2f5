package resolver

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/listenupapp/shelf/internal/capture"
	"github.com/listenupapp/shelf/internal/domain"
	"github.com/listenupapp/shelf/internal/metadata"
)

var (
	// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
	htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)
	leadingYear    = regexp.MustCompile(`^\s*(\d{4})`)
)

// toDraft maps a provider candidate into a draft.
// Fields the provider left empty stay nil. The first author wins; no author
// means an empty author, never a placeholder.
func toDraft(c metadata.Candidate, key domain.LookupKey) (domain.BookDraft, bool) {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return domain.BookDraft{}, false
	}

	d := domain.BookDraft{Title: title}
	if len(c.Authors) > 0 {
		d.Author = strings.TrimSpace(c.Authors[0])
	}

	d.ISBN = optional(c.ISBN)
	if isbn, ok := capture.NormalizeISBN(c.ISBN); ok {
		d.ISBN = &isbn
	}
	if d.ISBN == nil && key.IsISBN() {
		d.ISBN = domain.Ptr(key.Value)
	}

	d.ThumbnailURL = optional(c.ThumbnailURL)
	d.Publisher = optional(c.Publisher)
	d.Year = parseYear(c.PublishedDate)
	if desc := htmlToMarkdown(strings.TrimSpace(c.Description)); desc != "" {
		d.Description = &desc
	}

	return d, true
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// parseYear reads the leading four digits of a provider date ("1965", "1990-09-01").
func parseYear(date string) *string {
	m := leadingYear.FindStringSubmatch(date)
	if m == nil {
		return nil
	}
	y := m[1]
	return &y
}

// containsHTML checks if a string appears to contain HTML markup.
func containsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// htmlToMarkdown converts HTML descriptions to Markdown.
// Plain text is returned unchanged, as is the input when conversion fails.
func htmlToMarkdown(s string) string {
	if s == "" || !containsHTML(s) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}

	return strings.TrimSpace(markdown)
}
