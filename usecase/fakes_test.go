package usecase

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"hippocampus/model"
	"hippocampus/repository"
)

const testDims = 64

var errStoreDown = errors.New("store down")

// fakeEmbedder hashes words into buckets so texts sharing words score close.
type fakeEmbedder struct {
	mu      sync.Mutex
	calls   int
	queries []string
	err     error
}

func (e *fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, testDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%testDims]++
	}
	return v
}

func (e *fakeEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.queries = append(e.queries, text)
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

// recordingVectors wraps the in-memory store and counts deletes.
type recordingVectors struct {
	*repository.MemoryStore
	deletes   []model.Filter
	upserts   int
	deleteErr error
}

func newRecordingVectors() *recordingVectors {
	return &recordingVectors{MemoryStore: repository.NewMemoryStore(testDims)}
}

func (v *recordingVectors) Upsert(ctx context.Context, docID string, vector []float32, payload map[string]string) error {
	v.upserts++
	return v.MemoryStore.Upsert(ctx, docID, vector, payload)
}

func (v *recordingVectors) DeleteByFilter(ctx context.Context, filter model.Filter) error {
	v.deletes = append(v.deletes, filter)
	if v.deleteErr != nil {
		return v.deleteErr
	}
	return v.MemoryStore.DeleteByFilter(ctx, filter)
}

type fakeRecords struct {
	mu        sync.Mutex
	rows      map[string]model.Record
	insertErr error
	deleteErr error
	updateErr error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{rows: make(map[string]model.Record)}
}

func (r *fakeRecords) Insert(_ context.Context, rec *model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.rows[rec.DocID] = *rec
	return nil
}

func (r *fakeRecords) ListByUser(_ context.Context, userID string) ([]model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Record, 0)
	for _, rec := range r.rows {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRecords) FindByDocID(_ context.Context, userID, docID string) (*model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[docID]
	if !ok || rec.UserID != userID {
		return nil, nil
	}
	return &rec, nil
}

func (r *fakeRecords) Update(_ context.Context, rec *model.Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return false, r.updateErr
	}
	existing, ok := r.rows[rec.DocID]
	if !ok || existing.UserID != rec.UserID {
		return false, nil
	}
	r.rows[rec.DocID] = *rec
	return true, nil
}

func (r *fakeRecords) DeleteByDocID(_ context.Context, userID, docID string) (*model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return nil, r.deleteErr
	}
	rec, ok := r.rows[docID]
	if !ok || rec.UserID != userID {
		return nil, nil
	}
	delete(r.rows, docID)
	return &rec, nil
}

func (r *fakeRecords) CountBySpace(_ context.Context, userID string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, rec := range r.rows {
		if rec.UserID == userID {
			counts[rec.Space]++
		}
	}
	return counts, nil
}

type fakeCollections struct {
	mu       sync.Mutex
	counts   map[string]map[string]int
	legacy   map[string][]string
	replaced int
}

func newFakeCollections() *fakeCollections {
	return &fakeCollections{
		counts: make(map[string]map[string]int),
		legacy: make(map[string][]string),
	}
}

func (c *fakeCollections) Get(_ context.Context, userID string) (*model.CollectionSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	summary := &model.CollectionSummary{UserID: userID, Collections: []model.TagEntry{}}
	for _, name := range c.legacy[userID] {
		summary.Collections = append(summary.Collections, model.TagEntry{TagCount: model.TagCount{Name: name}, Legacy: true})
	}
	for name, n := range c.counts[userID] {
		summary.Collections = append(summary.Collections, model.TagEntry{TagCount: model.TagCount{Name: name, MemoryCount: n}})
	}
	return summary, nil
}

func (c *fakeCollections) Replace(_ context.Context, userID string, counts []model.TagCount) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaced++
	delete(c.legacy, userID)
	c.counts[userID] = make(map[string]int)
	for _, tc := range counts {
		c.counts[userID][tc.Name] = tc.MemoryCount
	}
	return nil
}

func (c *fakeCollections) Increment(_ context.Context, userID, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[userID] == nil {
		c.counts[userID] = make(map[string]int)
	}
	c.counts[userID][name]++
	return nil
}

func (c *fakeCollections) Decrement(_ context.Context, userID, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[userID] == nil {
		return nil
	}
	c.counts[userID][name]--
	if c.counts[userID][name] <= 0 {
		delete(c.counts[userID], name)
	}
	return nil
}

func (c *fakeCollections) count(userID, name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[userID][name]
}

type testEnv struct {
	embedder    *fakeEmbedder
	vectors     *recordingVectors
	bookmarkDB  *fakeRecords
	noteDB      *fakeRecords
	collections *fakeCollections
	bookmarks   *RecordService
	notes       *RecordService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		embedder:    &fakeEmbedder{},
		vectors:     newRecordingVectors(),
		bookmarkDB:  newFakeRecords(),
		noteDB:      newFakeRecords(),
		collections: newFakeCollections(),
	}
	env.bookmarks = NewRecordService(model.KindBookmark, env.bookmarkDB, env.vectors, env.embedder, env.collections)
	env.notes = NewRecordService(model.KindNote, env.noteDB, env.vectors, env.embedder, env.collections)
	return env
}
