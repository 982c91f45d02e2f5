// Package capture turns raw recognition tokens into lookup keys.
//
// Extraction is pure: the same token always yields the same key or no key.
package capture

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/listenupapp/shelf/internal/domain"
)

// Extract derives the lookup key for a token.
// The second return value is false when the token carries no candidate.
//
//	barcode "978-0-441-17271-9"   -> isbn:9780441172719
//	text    "DUNE\nFrank Herbert" -> title:dune
//	text    "DUNE"                -> no candidate
func Extract(tok domain.Token) (domain.LookupKey, bool) {
	switch tok.Kind {
	case domain.TokenBarcode:
		isbn, ok := NormalizeISBN(tok.Value)
		if !ok {
			return domain.LookupKey{}, false
		}
		return domain.LookupKey{Value: isbn, Kind: domain.KeyISBN}, true

	case domain.TokenText:
		lines := Lines(tok.Value)
		if len(lines) < 2 {
			return domain.LookupKey{}, false
		}
		title := FoldTitle(lines[0])
		if title == "" {
			return domain.LookupKey{}, false
		}
		return domain.LookupKey{Value: title, Kind: domain.KeyTitle}, true

	default:
		return domain.LookupKey{}, false
	}
}

// SecondLine returns the trimmed second non-blank line of a text token.
// Recognized book covers put the author there; the coordinator uses it as a
// hint when the provider knows no author.
func SecondLine(tok domain.Token) string {
	if tok.Kind != domain.TokenText {
		return ""
	}
	lines := Lines(tok.Value)
	if len(lines) < 2 {
		return ""
	}
	return lines[1]
}

// Lines splits text on newlines and returns the trimmed non-blank lines.
func Lines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// FoldTitle normalizes a title line for use as a key.
// Whitespace runs collapse to one space and case is folded.
func FoldTitle(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(s)
}

// NormalizeISBN strips spaces and hyphens from a barcode payload and checks
// that what remains is a 10 or 13 character ISBN.
// ISBN-10 may end in a check character of X; it is upper-cased.
// Check digits are not verified.
func NormalizeISBN(raw string) (string, bool) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case ' ', '-', '\t':
			continue
		}
		b.WriteRune(r)
	}
	s := b.String()

	switch len(s) {
	case 10:
		if !allDigits(s[:9]) {
			return "", false
		}
		last := s[9]
		switch {
		case last >= '0' && last <= '9':
		case last == 'x' || last == 'X':
			s = s[:9] + "X"
		default:
			return "", false
		}
		return s, true
	case 13:
		if !allDigits(s) {
			return "", false
		}
		return s, true
	default:
		return "", false
	}
}

func allDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
