// Package inbox feeds recognition tokens dropped as JSON files into the capture pipeline.
//
// A scanner app (or a person) writes files into the inbox directory. Each
// file holds one token or an array of tokens:
//
//	{"kind": "barcode", "value": "9780441013593"}
//	[{"kind": "text", "value": "Dune\nFrank Herbert"}]
//
// Once a file has settled it is decoded, its tokens are delivered in order,
// and the file is moved into done/ (or failed/ if it could not be decoded).
package inbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/listenupapp/shelf/internal/domain"
)

const (
	doneDir   = "done"
	failedDir = "failed"
)

// Sink receives tokens read from the inbox.
type Sink interface {
	Deliver(ctx context.Context, userID string, tok domain.Token) error
}

// Watcher watches one directory for token files.
type Watcher struct {
	logger  *slog.Logger
	sink    Sink
	fs      *fsnotify.Watcher
	opts    Options
	dir     string
	pending map[string]*pendingFile
	mu      sync.Mutex
	wg      sync.WaitGroup
	done    chan struct{}
	once    sync.Once
}

type pendingFile struct {
	timer   *time.Timer
	modTime time.Time
	size    int64
}

// New creates a watcher for dir. The directory and its done/ and failed/
// subdirectories are created if missing.
func New(dir string, sink Sink, logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	for _, d := range []string{dir, filepath.Join(dir, doneDir), filepath.Join(dir, failedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create inbox dir: %w", err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch inbox: %w", err)
	}

	return &Watcher{
		logger:  logger,
		sink:    sink,
		fs:      fsw,
		opts:    opts,
		dir:     filepath.Clean(dir),
		pending: make(map[string]*pendingFile),
		done:    make(chan struct{}),
	}, nil
}

// Start processes files already in the inbox, then watches for new ones.
// It blocks until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.settle(ctx, filepath.Join(w.dir, e.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.settle(ctx, event.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("inbox watch error", "error", err)
		}
	}
}

// Stop stops watching and waits for files being processed.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		for path, p := range w.pending {
			p.timer.Stop()
			delete(w.pending, path)
		}
		w.mu.Unlock()
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

// Shutdown implements do.Shutdownable.
func (w *Watcher) Shutdown() error {
	return w.Stop()
}

// settle (re)starts the settle timer for path.
func (w *Watcher) settle(ctx context.Context, path string) {
	if w.opts.shouldIgnore(path) {
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}
	p := &pendingFile{size: info.Size(), modTime: info.ModTime()}
	p.timer = time.AfterFunc(w.opts.SettleDelay, func() { w.checkSettled(ctx, path) })
	w.pending[path] = p
}

func (w *Watcher) checkSettled(ctx context.Context, path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok {
		w.mu.Unlock()
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		w.mu.Unlock()
		return
	}

	if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer = time.AfterFunc(w.opts.SettleDelay, func() { w.checkSettled(ctx, path) })
		w.mu.Unlock()
		return
	}

	delete(w.pending, path)
	w.wg.Add(1)
	w.mu.Unlock()

	defer w.wg.Done()
	w.process(ctx, path)
}

// process decodes path, delivers its tokens, and files it away.
func (w *Watcher) process(ctx context.Context, path string) {
	log := w.logger.With("file", filepath.Base(path))

	tokens, err := readTokens(path)
	if err != nil {
		log.Warn("unreadable token file", "error", err)
		w.move(path, failedDir)
		return
	}

	delivered := 0
	for _, tok := range tokens {
		if err := w.sink.Deliver(ctx, w.opts.UserID, tok); err != nil {
			log.Warn("token rejected", "kind", tok.Kind, "error", err)
			continue
		}
		delivered++
	}

	log.Info("inbox file processed", "tokens", len(tokens), "delivered", delivered)
	w.move(path, doneDir)
}

func (w *Watcher) move(path, sub string) {
	dst := filepath.Join(w.dir, sub, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		w.logger.Warn("failed to move inbox file", "file", path, "error", err)
	}
}

// ErrNoTokens is returned for a file that decodes to nothing.
var ErrNoTokens = errors.New("no tokens in file")

func readTokens(path string) ([]domain.Token, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- inbox files are expected user input
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoTokens
	}

	var tokens []domain.Token
	if data[0] == '[' {
		if err := json.Unmarshal(data, &tokens); err != nil {
			return nil, fmt.Errorf("decode tokens: %w", err)
		}
	} else {
		var tok domain.Token
		if err := json.Unmarshal(data, &tok); err != nil {
			return nil, fmt.Errorf("decode token: %w", err)
		}
		tokens = []domain.Token{tok}
	}

	valid := tokens[:0]
	for _, tok := range tokens {
		if tok.Kind.Valid() {
			valid = append(valid, tok)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoTokens
	}
	return valid, nil
}
