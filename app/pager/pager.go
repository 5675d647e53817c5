// Package pager implements incremental feed loading. Pager fetches one page at a time from DataSource,
// appends articles deduplicated by url and tracks loading, error and end-of-data state.
package pager

import (
	"context"
	"fmt"
	"sync"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/dailyplanet/app/live"
	"github.com/umputun/dailyplanet/app/models"
)

// DataSource fetches a page of articles starting at cursor, empty cursor is the first page
type DataSource interface {
	FetchPage(ctx context.Context, cursor string) (models.FeedPage, error)
}

// Phase of the paging state machine
type Phase int

// paging phases
const (
	Idle Phase = iota
	Loading
	Loaded
	Errored
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText renders phase name in json
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// State is a snapshot of paging. Articles slice is shared, callers must not modify it.
type State struct {
	Articles   []models.Article `json:"articles"`
	Phase      Phase            `json:"phase"`
	IsLoading  bool             `json:"is_loading"`
	Error      string           `json:"error,omitempty"`
	EndReached bool             `json:"end_reached"`
}

// FetchError is a failed page load
type FetchError struct {
	Cursor string
	Err    error
}

func (e *FetchError) Error() string { return e.Err.Error() }

// Unwrap returns data source error
func (e *FetchError) Unwrap() error { return e.Err }

// Pager is the paging state machine. All state mutations happen under mu, results of fetches
// started before Reset or Close are dropped.
type Pager struct {
	src DataSource

	mu       sync.Mutex
	state    State
	cursor   string
	seen     map[string]struct{}
	gen      uint64
	closed   bool
	cancel   context.CancelFunc
	fetching sync.WaitGroup

	ctx     context.Context
	stop    context.CancelFunc
	updates *live.Value[State]
}

// New makes Pager in Idle phase
func New(src DataSource) *Pager {
	ctx, stop := context.WithCancel(context.Background())
	return &Pager{
		src:     src,
		seen:    map[string]struct{}{},
		ctx:     ctx,
		stop:    stop,
		updates: live.New(State{Phase: Idle}),
	}
}

// State returns current snapshot
func (p *Pager) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// Watch returns channel with the current state followed by every change
func (p *Pager) Watch(ctx context.Context) <-chan State {
	return p.updates.Watch(ctx)
}

// RequestNextPage starts fetching the next page. Does nothing and returns false while a fetch is
// in flight, after the end of data or after Close.
func (p *Pager) RequestNextPage() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.state.Phase == Loading || p.state.EndReached {
		return false
	}

	p.state.Phase = Loading
	p.state.IsLoading = true
	p.state.Error = ""
	p.publish()

	ctx, cancel := context.WithCancel(p.ctx)
	p.cancel = cancel
	p.fetching.Add(1)
	go p.fetch(ctx, p.gen, p.cursor)
	return true
}

// Reset drops loaded articles, error, cursor and end-of-data flag and returns to Idle.
// A fetch in flight is cancelled and its result ignored.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.state = State{Phase: Idle}
	p.cursor = ""
	p.seen = map[string]struct{}{}
	log.Printf("[DEBUG] pager reset")
	p.publish()
}

// Close tears pager down, state stays as is and late fetch results are dropped
func (p *Pager) Close() {
	p.mu.Lock()
	p.closed = true
	p.gen++
	p.mu.Unlock()
	p.stop()
}

// Wait blocks until all started fetches are completed
func (p *Pager) Wait() {
	p.fetching.Wait()
}

func (p *Pager) fetch(ctx context.Context, gen uint64, cursor string) {
	defer p.fetching.Done()
	page, err := p.src.FetchPage(ctx, cursor)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || gen != p.gen {
		log.Printf("[DEBUG] drop stale page result, cursor %q", cursor)
		return
	}
	p.cancel = nil

	if err != nil {
		ferr := &FetchError{Cursor: cursor, Err: err}
		log.Printf("[WARN] failed to fetch page, cursor %q, %v", cursor, ferr)
		p.state.Phase = Errored
		p.state.IsLoading = false
		p.state.Error = ferr.Error()
		p.publish()
		return
	}

	added := p.appendUnique(page.Articles)
	p.cursor = page.NextCursor
	p.state.Phase = Loaded
	p.state.IsLoading = false
	if !page.HasMore || len(page.Articles) == 0 {
		p.state.EndReached = true
	}
	log.Printf("[DEBUG] page loaded, cursor %q, %d articles, %d new, total %d, end %v",
		cursor, len(page.Articles), added, len(p.state.Articles), p.state.EndReached)
	p.publish()
}

// appendUnique adds articles not seen before, keeps the first occurrence of each url
func (p *Pager) appendUnique(articles []models.Article) (added int) {
	for _, a := range articles {
		if _, ok := p.seen[a.URL]; ok {
			continue
		}
		p.seen[a.URL] = struct{}{}
		p.state.Articles = append(p.state.Articles, a)
		added++
	}
	return added
}

// snapshot must be called with mu held
func (p *Pager) snapshot() State {
	res := p.state
	n := len(res.Articles)
	res.Articles = res.Articles[:n:n]
	return res
}

// publish must be called with mu held
func (p *Pager) publish() {
	p.updates.Set(p.snapshot())
}
