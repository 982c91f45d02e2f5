package itunes

import (
	"regexp"
	"strings"
)

// CoverSize is the artwork size requested from the iTunes CDN.
// The CDN serves the largest available size up to this.
const CoverSize = "600x600bb.jpg"

// sizePattern matches iTunes artwork suffixes like "100x100bb.jpg".
var sizePattern = regexp.MustCompile(`/\d+x\d+bb\.(jpg|png)$`)

// CoverURL rewrites an artwork URL to request a cover-sized image over https.
func CoverURL(artwork string) string {
	if artwork == "" {
		return ""
	}
	u := sizePattern.ReplaceAllString(artwork, "/"+CoverSize)
	return strings.Replace(u, "http://", "https://", 1)
}
