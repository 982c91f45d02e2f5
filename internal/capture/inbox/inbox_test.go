package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelf/internal/domain"
	"github.com/listenupapp/shelf/internal/logger"
)

type recordingSink struct {
	mu     sync.Mutex
	tokens []domain.Token
	users  []string
	fail   bool
}

func (s *recordingSink) Deliver(_ context.Context, userID string, tok domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("no collection selected")
	}
	s.tokens = append(s.tokens, tok)
	s.users = append(s.users, userID)
	return nil
}

func (s *recordingSink) snapshot() []domain.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Token(nil), s.tokens...)
}

func startWatcher(t *testing.T, sink Sink) (string, *Watcher) {
	t.Helper()
	dir := t.TempDir()

	w, err := New(dir, sink, logger.Discard().Logger, Options{UserID: "u1", SettleDelay: 20 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Stop()
	})
	return dir, w
}

func TestWatcher_DeliversSingleToken(t *testing.T) {
	sink := &recordingSink{}
	dir, _ := startWatcher(t, sink)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan.json"),
		[]byte(`{"kind":"barcode","value":"9780441013593"}`), 0o644))

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, domain.Token{Kind: domain.TokenBarcode, Value: "9780441013593"}, sink.snapshot()[0])
	assert.Equal(t, []string{"u1"}, sink.users)

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, doneDir, "scan.json"))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_DeliversArrayInOrder(t *testing.T) {
	sink := &recordingSink{}
	dir, _ := startWatcher(t, sink)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch.json"), []byte(`[
		{"kind":"text","value":"Dune\nFrank Herbert"},
		{"kind":"qr","value":"ignored"},
		{"kind":"barcode","value":"0441172717"}
	]`), 0o644))

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
	got := sink.snapshot()
	assert.Equal(t, domain.TokenText, got[0].Kind)
	assert.Equal(t, domain.TokenBarcode, got[1].Kind)
}

func TestWatcher_ProcessesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "early.json"),
		[]byte(`{"kind":"barcode","value":"9780441013593"}`), 0o644))

	sink := &recordingSink{}
	w, err := New(dir, sink, logger.Discard().Logger, Options{UserID: "u1", SettleDelay: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()
	defer func() {
		cancel()
		<-done
		require.NoError(t, w.Stop())
	}()

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_MalformedFileMovedToFailed(t *testing.T) {
	sink := &recordingSink{}
	dir, _ := startWatcher(t, sink)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{not json`), 0o644))

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, failedDir, "bad.json"))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, sink.snapshot())
}

func TestWatcher_RejectedTokensStillFiled(t *testing.T) {
	sink := &recordingSink{fail: true}
	dir, _ := startWatcher(t, sink)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan.json"),
		[]byte(`{"kind":"barcode","value":"9780441013593"}`), 0o644))

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, doneDir, "scan.json"))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOptions_ShouldIgnore(t *testing.T) {
	opts := Options{}
	opts.setDefaults()

	assert.False(t, opts.shouldIgnore("/inbox/scan.json"))
	assert.False(t, opts.shouldIgnore("/inbox/SCAN.JSON"))
	assert.True(t, opts.shouldIgnore("/inbox/.scan.json"))
	assert.True(t, opts.shouldIgnore("/inbox/scan.json.tmp"))
	assert.True(t, opts.shouldIgnore("/inbox/notes.txt"))
}

func TestReadTokens_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	_, err := readTokens(path)
	assert.ErrorIs(t, err, ErrNoTokens)
}
