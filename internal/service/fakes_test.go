package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/listenupapp/shelf/internal/domain"
	domainerrors "github.com/listenupapp/shelf/internal/errors"
	"github.com/listenupapp/shelf/internal/resolver"
	"github.com/listenupapp/shelf/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memStore is an in-memory CatalogStore with switchable faults.
type memStore struct {
	mu          sync.Mutex
	collections map[string]*domain.Collection
	seq         int
	addCalls    atomic.Int32

	failAdd  atomic.Bool
	failList atomic.Bool
	failDel  atomic.Bool

	// afterList runs once a listing has taken its snapshot, before it returns.
	afterList func()
}

func newMemStore() *memStore {
	return &memStore{collections: make(map[string]*domain.Collection)}
}

var errOutage = errors.New("simulated outage")

func (m *memStore) CreateCollection(_ context.Context, userID, name string) (*domain.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c := domain.NewCollection(userID, name)
	c.ID = fmt.Sprintf("coll-%d", m.seq)
	c.CreatedAt = c.CreatedAt.Add(time.Duration(m.seq) * time.Millisecond)
	m.collections[c.ID] = c
	return c.Clone(), nil
}

func (m *memStore) DeleteCollection(_ context.Context, _, collectionID string, cascade bool) error {
	if m.failDel.Load() {
		if cascade {
			m.mu.Lock()
			if c, ok := m.collections[collectionID]; ok && len(c.Books) > 0 {
				c.Books = c.Books[1:]
			}
			m.mu.Unlock()
		}
		return domainerrors.StoreWrite(errOutage)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, collectionID)
	return nil
}

func (m *memStore) AddBook(_ context.Context, _, collectionID string, draft domain.BookDraft) (*domain.Book, error) {
	m.addCalls.Add(1)
	if m.failAdd.Load() {
		return nil, domainerrors.StoreWrite(errOutage)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collectionID]
	if !ok {
		return nil, store.CollectionNotFound(collectionID)
	}
	m.seq++
	b := domain.NewBook(collectionID, draft)
	b.ID = fmt.Sprintf("book-%d", m.seq)
	c.Books = append(c.Books, b)
	return b.Clone(), nil
}

func (m *memStore) DeleteBook(_ context.Context, _, collectionID, bookID string) error {
	if m.failDel.Load() {
		return domainerrors.StoreWrite(errOutage)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.collections[collectionID]; ok {
		c.RemoveBook(bookID)
	}
	return nil
}

func (m *memStore) ListCollections(_ context.Context, _ string) ([]*domain.Collection, error) {
	if m.failList.Load() {
		return nil, domainerrors.StoreRead(errOutage)
	}
	m.mu.Lock()
	out := make([]*domain.Collection, 0, len(m.collections))
	for _, c := range m.collections {
		out = append(out, c.Clone())
	}
	hook := m.afterList
	m.mu.Unlock()

	domain.SortCollections(out)
	if hook != nil {
		hook()
	}
	return out, nil
}

// holdListing makes the next listing block after its snapshot is taken.
// listed is closed once the snapshot exists; release lets the listing return.
func (m *memStore) holdListing() (listed <-chan struct{}, release func()) {
	l := make(chan struct{})
	gate := make(chan struct{})
	var once, relOnce sync.Once
	m.mu.Lock()
	m.afterList = func() {
		once.Do(func() {
			close(l)
			<-gate
		})
	}
	m.mu.Unlock()
	return l, func() { relOnce.Do(func() { close(gate) }) }
}

func (m *memStore) RenameCollection(_ context.Context, _, collectionID, name string) (*domain.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collectionID]
	if !ok {
		return nil, store.CollectionNotFound(collectionID)
	}
	c.Name = name
	c.Touch()
	return c.Clone(), nil
}

func (m *memStore) UpdateBook(_ context.Context, _, collectionID, bookID string, draft domain.BookDraft) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.collections[collectionID]; ok {
		for _, b := range c.Books {
			if b.ID == bookID {
				b.Amend(draft)
				return b.Clone(), nil
			}
		}
	}
	return nil, store.BookNotFound(bookID)
}

func (m *memStore) bookCount(collectionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.collections[collectionID]; ok {
		return len(c.Books)
	}
	return 0
}

// fakeResolver answers from a fixed table and can hold lookups until released.
type fakeResolver struct {
	mu      sync.Mutex
	drafts  map[domain.LookupKey]domain.BookDraft
	gate    chan struct{}
	calls   atomic.Int32
	started chan domain.LookupKey
	forgot  []domain.LookupKey
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		drafts:  make(map[domain.LookupKey]domain.BookDraft),
		started: make(chan domain.LookupKey, 16),
	}
}

func (r *fakeResolver) answer(key domain.LookupKey, d domain.BookDraft) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[key] = d
}

// hold makes lookups block until the returned release func is called.
func (r *fakeResolver) hold() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate := make(chan struct{})
	r.gate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (r *fakeResolver) Resolve(_ context.Context, key domain.LookupKey) resolver.Result {
	r.calls.Add(1)
	select {
	case r.started <- key:
	default:
	}

	r.mu.Lock()
	gate := r.gate
	d, ok := r.drafts[key]
	r.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if !ok {
		return resolver.Result{Reason: resolver.ReasonNoResults, Provider: "fake"}
	}
	draft := d.Clone()
	return resolver.Result{Draft: &draft, Provider: "fake"}
}

func (r *fakeResolver) Forget(key domain.LookupKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forgot = append(r.forgot, key)
}

func (r *fakeResolver) forgotten() []domain.LookupKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.LookupKey(nil), r.forgot...)
}

// recordingEmitter keeps emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []any
}

func (e *recordingEmitter) Emit(event any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}
