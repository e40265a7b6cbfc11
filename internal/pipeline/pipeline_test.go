package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobradar/internal/classifier"
	"github.com/amishk599/jobradar/internal/dispatch"
	"github.com/amishk599/jobradar/internal/model"
)

// --- Fakes ---

// fakeBoard serves newest-first postings and applies the cursor window the way
// real adapters do.
type fakeBoard struct {
	mu       sync.Mutex
	sourceID string
	native   []string // newest first
	titles   map[string]string
	location string
	err      error
	calls    int
	hints    []string
}

func newFakeBoard(sourceID string, native ...string) *fakeBoard {
	return &fakeBoard{sourceID: sourceID, native: native, titles: map[string]string{}, location: "Amsterdam, Netherlands"}
}

func (b *fakeBoard) post(native string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.native = append([]string{native}, b.native...)
}

func (b *fakeBoard) Fetch(_ context.Context, hint string) ([]model.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.hints = append(b.hints, hint)
	if b.err != nil {
		return nil, b.err
	}

	var jobs []model.Job
	for _, n := range b.native {
		if n == hint {
			return jobs, nil
		}
		title := b.titles[n]
		if title == "" {
			title = "Software Engineer"
		}
		jobs = append(jobs, model.Job{
			ID:       model.JobID(b.sourceID, n),
			Title:    title,
			Company:  b.sourceID,
			Location: b.location,
			URL:      "https://example.com/" + n,
			Source:   b.sourceID,
		})
	}
	if hint != "" {
		return nil, nil
	}
	return jobs, nil
}

// InMemoryCursorStore is a map-based CursorStore.
type InMemoryCursorStore struct {
	mu      sync.Mutex
	cursors map[string]model.Cursor
	getErr  error
}

func NewInMemoryCursorStore() *InMemoryCursorStore {
	return &InMemoryCursorStore{cursors: map[string]model.Cursor{}}
}

func (s *InMemoryCursorStore) Get(_ context.Context, sourceID string) (*model.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	c, ok := s.cursors[sourceID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *InMemoryCursorStore) Advance(_ context.Context, sourceID, nativeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[sourceID] = model.Cursor{SourceID: sourceID, LastJobID: nativeID, LastCheckTime: time.Now()}
	return nil
}

func (s *InMemoryCursorStore) lastJobID(sourceID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors[sourceID].LastJobID
}

// InMemoryJobStore is a map-based JobStore. failOn makes PublishIfNew fail for one job id.
type InMemoryJobStore struct {
	mu     sync.Mutex
	jobs   map[string]model.Job
	failOn string
}

func NewInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{jobs: map[string]model.Job{}}
}

func (s *InMemoryJobStore) PublishIfNew(_ context.Context, job model.Job) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == s.failOn {
		return false, fmt.Errorf("%w: connection refused", model.ErrStoreUnavailable)
	}
	if _, ok := s.jobs[job.ID]; ok {
		return false, nil
	}
	s.jobs[job.ID] = job
	return true, nil
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testProfessions = []model.Profession{
	{ID: "eng", Name: "Engineering", Keywords: []string{"engineer", "developer"}},
	{ID: "sales", Name: "Sales", Keywords: []string{"account"}},
}

func source(id string) model.JobSource {
	return model.JobSource{ID: id, Name: id, Type: model.SourceGreenhouse, CompanyID: id}
}

func boardFactory(boards map[string]*fakeBoard) AdapterFactory {
	return func(src model.JobSource) (model.SourceAdapter, error) {
		b, ok := boards[src.ID]
		if !ok {
			return nil, fmt.Errorf("source %s: unsupported type %q", src.ID, src.Type)
		}
		return b, nil
	}
}

func newTestOrchestrator(boards map[string]*fakeBoard, cursors model.CursorStore, jobs model.JobStore, opts Options) *Orchestrator {
	return NewOrchestrator(boardFactory(boards), cursors, jobs, classifier.NewLocationGate(classifier.DefaultRegion, nil), opts, discardLogger())
}

func snapshot(ids ...string) model.Snapshot {
	snap := model.Snapshot{Professions: testProfessions}
	for _, id := range ids {
		snap.Sources = append(snap.Sources, source(id))
	}
	return snap
}

// --- Tests ---

func TestRunCycle_FirstPollThenIdempotentRepoll(t *testing.T) {
	board := newFakeBoard("acme", "103", "102", "101")
	cursors := NewInMemoryCursorStore()
	jobs := NewInMemoryJobStore()
	o := newTestOrchestrator(map[string]*fakeBoard{"acme": board}, cursors, jobs, Options{})

	sum, err := o.RunCycle(context.Background(), snapshot("acme"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.JobsFound != 3 || sum.JobsStored != 3 {
		t.Fatalf("first poll: expected found=3 stored=3, got found=%d stored=%d", sum.JobsFound, sum.JobsStored)
	}
	if got := cursors.lastJobID("acme"); got != "103" {
		t.Fatalf("expected cursor at newest posting 103, got %q", got)
	}
	if sum.CycleID == "" {
		t.Error("expected a cycle id")
	}
	before, _ := cursors.Get(context.Background(), "acme")

	sum, err = o.RunCycle(context.Background(), snapshot("acme"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.JobsFound != 0 || sum.JobsStored != 0 {
		t.Fatalf("re-poll: expected found=0 stored=0, got found=%d stored=%d", sum.JobsFound, sum.JobsStored)
	}
	after, _ := cursors.Get(context.Background(), "acme")
	if !after.LastCheckTime.Equal(before.LastCheckTime) || after.LastJobID != before.LastJobID {
		t.Errorf("empty re-poll must leave the cursor untouched: %+v -> %+v", before, after)
	}
	if board.hints[1] != "103" {
		t.Errorf("second fetch should pass cursor 103, got %q", board.hints[1])
	}
}

func TestRunCycle_NewPostingAdvancesCursor(t *testing.T) {
	board := newFakeBoard("acme", "101")
	cursors := NewInMemoryCursorStore()
	o := newTestOrchestrator(map[string]*fakeBoard{"acme": board}, cursors, NewInMemoryJobStore(), Options{})

	o.RunCycle(context.Background(), snapshot("acme"))
	board.post("102")
	board.post("103")

	sum, _ := o.RunCycle(context.Background(), snapshot("acme"))
	if sum.JobsStored != 2 {
		t.Fatalf("expected 2 new postings stored, got %d", sum.JobsStored)
	}
	if got := cursors.lastJobID("acme"); got != "103" {
		t.Errorf("expected cursor 103, got %q", got)
	}
}

func TestRunCycle_FetchFailureIsolatedAndCursorKept(t *testing.T) {
	broken := newFakeBoard("broken", "9")
	broken.err = &model.HTTPError{StatusCode: 503, Err: model.ErrSourceUnavailable}
	healthy := newFakeBoard("healthy", "2", "1")

	cursors := NewInMemoryCursorStore()
	cursors.cursors["broken"] = model.Cursor{SourceID: "broken", LastJobID: "8"}
	o := newTestOrchestrator(map[string]*fakeBoard{"broken": broken, "healthy": healthy}, cursors, NewInMemoryJobStore(), Options{})

	sum, err := o.RunCycle(context.Background(), snapshot("broken", "healthy"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Failed != 1 || sum.JobsStored != 2 {
		t.Fatalf("expected 1 failed source and 2 stored, got %+v", sum)
	}
	if out := sum.Sources[0]; out.OK() || out.Failure != "unavailable" {
		t.Errorf("expected broken source to fail as unavailable, got %+v", out)
	}
	if got := cursors.lastJobID("broken"); got != "8" {
		t.Errorf("failed fetch moved the cursor to %q", got)
	}
}

func TestRunCycle_StoreFailureStopsSourceWithoutAdvancing(t *testing.T) {
	board := newFakeBoard("acme", "3", "2", "1")
	other := newFakeBoard("other", "1")
	cursors := NewInMemoryCursorStore()
	jobs := NewInMemoryJobStore()
	jobs.failOn = "acme-2"
	o := newTestOrchestrator(map[string]*fakeBoard{"acme": board, "other": other}, cursors, jobs, Options{})

	sum, _ := o.RunCycle(context.Background(), snapshot("acme", "other"))
	acme := sum.Sources[0]
	if acme.Failure != "store" || !errors.Is(acme.Err, model.ErrStoreUnavailable) {
		t.Fatalf("expected store failure, got %+v", acme)
	}
	if acme.Stored != 1 {
		t.Errorf("expected the posting before the failure to count, got stored=%d", acme.Stored)
	}
	if got := cursors.lastJobID("acme"); got != "" {
		t.Errorf("cursor must not advance after a store failure, got %q", got)
	}
	if !sum.Sources[1].OK() || sum.Sources[1].Stored != 1 {
		t.Errorf("other source should be unaffected, got %+v", sum.Sources[1])
	}

	// Once the store recovers the same window is re-fetched and finished.
	jobs.failOn = ""
	sum, _ = o.RunCycle(context.Background(), snapshot("acme"))
	if sum.JobsStored != 2 || cursors.lastJobID("acme") != "3" {
		t.Errorf("expected recovery to store the remaining 2 and advance, got stored=%d cursor=%q",
			sum.JobsStored, cursors.lastJobID("acme"))
	}
}

func TestRunCycle_ClassificationGates(t *testing.T) {
	board := newFakeBoard("acme", "4", "3", "2", "1")
	board.titles["3"] = "Office Manager"
	board.titles["2"] = "Senior Account Engineer"
	board.titles["1"] = "Account Executive"
	jobs := NewInMemoryJobStore()
	o := newTestOrchestrator(map[string]*fakeBoard{"acme": board}, NewInMemoryCursorStore(), jobs, Options{})

	sum, _ := o.RunCycle(context.Background(), snapshot("acme"))
	if sum.JobsFound != 4 || sum.JobsStored != 3 {
		t.Fatalf("expected found=4 stored=3, got found=%d stored=%d", sum.JobsFound, sum.JobsStored)
	}
	if p := jobs.jobs["acme-2"].Profession; p != "Engineering" {
		t.Errorf("expected first configured profession to win, got %q", p)
	}
	if p := jobs.jobs["acme-1"].Profession; p != "Sales" {
		t.Errorf("expected Sales, got %q", p)
	}
	if _, ok := jobs.jobs["acme-3"]; ok {
		t.Error("job without a profession must not be published")
	}
}

func TestRunCycle_OutOfRegionDropped(t *testing.T) {
	board := newFakeBoard("acme", "1")
	board.location = "Berlin, Germany"
	jobs := NewInMemoryJobStore()
	o := newTestOrchestrator(map[string]*fakeBoard{"acme": board}, NewInMemoryCursorStore(), jobs, Options{})

	sum, _ := o.RunCycle(context.Background(), snapshot("acme"))
	if sum.JobsFound != 1 || sum.JobsStored != 0 || len(jobs.jobs) != 0 {
		t.Fatalf("expected out-of-region job dropped, got %+v", sum)
	}
}

func TestRunCycle_UnknownSourceTypeIsConfigFailure(t *testing.T) {
	o := newTestOrchestrator(map[string]*fakeBoard{}, NewInMemoryCursorStore(), NewInMemoryJobStore(), Options{})

	sum, err := o.RunCycle(context.Background(), snapshot("mystery"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Sources[0].Failure != "config" {
		t.Errorf("expected config failure, got %+v", sum.Sources[0])
	}
}

func TestRunCycle_CursorReadFailure(t *testing.T) {
	cursors := NewInMemoryCursorStore()
	cursors.getErr = fmt.Errorf("%w: timeout", model.ErrStoreUnavailable)
	board := newFakeBoard("acme", "1")
	o := newTestOrchestrator(map[string]*fakeBoard{"acme": board}, cursors, NewInMemoryJobStore(), Options{})

	sum, _ := o.RunCycle(context.Background(), snapshot("acme"))
	if sum.Sources[0].Failure != "store" || board.calls != 0 {
		t.Errorf("expected store failure before any fetch, got %+v (calls=%d)", sum.Sources[0], board.calls)
	}
}

type slowAdapter struct{}

func (slowAdapter) Fetch(ctx context.Context, _ string) ([]model.Job, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRunCycle_FetchTimeoutIsUnavailable(t *testing.T) {
	factory := func(model.JobSource) (model.SourceAdapter, error) { return slowAdapter{}, nil }
	o := NewOrchestrator(factory, NewInMemoryCursorStore(), NewInMemoryJobStore(),
		classifier.NewLocationGate(classifier.DefaultRegion, nil),
		Options{FetchTimeout: 20 * time.Millisecond}, discardLogger())

	sum, _ := o.RunCycle(context.Background(), snapshot("slow"))
	out := sum.Sources[0]
	if !errors.Is(out.Err, model.ErrSourceUnavailable) || !errors.Is(out.Err, context.DeadlineExceeded) {
		t.Fatalf("expected timed-out fetch to be unavailable, got %v", out.Err)
	}
}

func TestRunCycle_UnknownStrategyFailsCycle(t *testing.T) {
	o := newTestOrchestrator(map[string]*fakeBoard{}, NewInMemoryCursorStore(), NewInMemoryJobStore(), Options{Strategy: "fuzzy"})
	if _, err := o.RunCycle(context.Background(), snapshot()); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestRunCycle_ParallelSourcesTotals(t *testing.T) {
	boards := map[string]*fakeBoard{}
	var ids []string
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("src%d", i)
		boards[id] = newFakeBoard(id, "2", "1")
		ids = append(ids, id)
	}
	o := newTestOrchestrator(boards, NewInMemoryCursorStore(), NewInMemoryJobStore(), Options{Concurrency: 3, Strategy: classifier.StrategyTrie})

	sum, _ := o.RunCycle(context.Background(), snapshot(ids...))
	if sum.JobsFound != 12 || sum.JobsStored != 12 || sum.Failed != 0 {
		t.Fatalf("expected 12/12 with no failures, got %+v", sum)
	}
	for i, out := range sum.Sources {
		if out.SourceID != ids[i] {
			t.Errorf("outcomes must keep snapshot order: [%d]=%s", i, out.SourceID)
		}
	}
}

func TestRunCycle_OverlappingCyclesPublishOnce(t *testing.T) {
	board := newFakeBoard("acme", "3", "2", "1")
	jobs := NewInMemoryJobStore()
	o := newTestOrchestrator(map[string]*fakeBoard{"acme": board}, NewInMemoryCursorStore(), jobs, Options{})

	var wg sync.WaitGroup
	var stored atomic.Int64
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sum, _ := o.RunCycle(context.Background(), snapshot("acme"))
			stored.Add(int64(sum.JobsStored))
		}()
	}
	wg.Wait()
	if stored.Load() != 3 {
		t.Errorf("expected 3 stored across overlapping cycles, got %d", stored.Load())
	}
}

// --- Service ---

type staticConfig struct{ snap model.Snapshot }

func (c staticConfig) Snapshot(context.Context) (model.Snapshot, error) { return c.snap, nil }

type countingDispatcher struct{ calls atomic.Int32 }

func (d *countingDispatcher) Dispatch(context.Context) (dispatch.Result, error) {
	d.calls.Add(1)
	return dispatch.Result{Sent: 2}, nil
}

type gatedAdapter struct {
	calls   atomic.Int32
	release chan struct{}
}

func (a *gatedAdapter) Fetch(context.Context, string) ([]model.Job, error) {
	a.calls.Add(1)
	<-a.release
	return nil, nil
}

func TestService_SearchRunsCycleThenDispatch(t *testing.T) {
	board := newFakeBoard("acme", "1")
	o := newTestOrchestrator(map[string]*fakeBoard{"acme": board}, NewInMemoryCursorStore(), NewInMemoryJobStore(), Options{})
	d := &countingDispatcher{}
	svc := NewService(staticConfig{snapshot("acme")}, o, d, discardLogger())

	res, err := svc.Search(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.JobsStored != 1 || res.Dispatch.Sent != 2 || d.calls.Load() != 1 {
		t.Errorf("unexpected result %+v (dispatch calls %d)", res, d.calls.Load())
	}
}

func TestService_OverlappingSearchesShareOneCycle(t *testing.T) {
	gate := &gatedAdapter{release: make(chan struct{})}
	factory := func(model.JobSource) (model.SourceAdapter, error) { return gate, nil }
	o := NewOrchestrator(factory, NewInMemoryCursorStore(), NewInMemoryJobStore(),
		classifier.NewLocationGate(classifier.DefaultRegion, nil), Options{}, discardLogger())
	svc := NewService(staticConfig{snapshot("acme")}, o, nil, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Search(context.Background())
		}()
	}

	// Let the first caller reach the adapter before releasing it.
	deadline := time.After(2 * time.Second)
	for gate.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("search never reached the adapter")
		case <-time.After(5 * time.Millisecond):
		}
	}
	time.Sleep(20 * time.Millisecond)
	close(gate.release)
	wg.Wait()

	if n := gate.calls.Load(); n != 1 {
		t.Errorf("expected one shared cycle, adapter called %d times", n)
	}
}

// blockingAdapter waits for the fetch context to end.
type blockingAdapter struct {
	started chan struct{}
	once    sync.Once
}

func (a *blockingAdapter) Fetch(ctx context.Context, _ string) ([]model.Job, error) {
	a.once.Do(func() { close(a.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestService_SearchOnceStopsWhenCancelled(t *testing.T) {
	adapter := &blockingAdapter{started: make(chan struct{})}
	factory := func(model.JobSource) (model.SourceAdapter, error) { return adapter, nil }
	o := NewOrchestrator(factory, NewInMemoryCursorStore(), NewInMemoryJobStore(),
		classifier.NewLocationGate(classifier.DefaultRegion, nil), Options{FetchTimeout: time.Minute}, discardLogger())
	svc := NewService(staticConfig{snapshot("acme")}, o, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.SearchOnce(ctx)
	}()

	select {
	case <-adapter.started:
	case <-time.After(2 * time.Second):
		t.Fatal("search never reached the adapter")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SearchOnce kept running after its context was cancelled")
	}
}
