package inbox

import (
	"path/filepath"
	"strings"
	"time"
)

// Options configures the inbox watcher.
type Options struct {
	IgnorePatterns []string
	// SettleDelay is how long a file must stay unchanged before it is read.
	SettleDelay time.Duration
	// UserID owns every token dropped into the inbox.
	UserID string
}

func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 100 * time.Millisecond
	}
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{"*.tmp", "*.part", "*.swp"}
	}
}

// shouldIgnore reports whether path is not a token file.
// Hidden files and anything other than *.json are skipped.
func (o *Options) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	for _, pattern := range o.IgnorePatterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return !strings.EqualFold(filepath.Ext(base), ".json")
}
