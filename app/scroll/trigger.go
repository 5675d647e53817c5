// Package scroll decides when the feed needs the next page. Trigger watches the last visible item of
// the active layout and asks the loader for more when the user gets close to the tail.
package scroll

import (
	"sync"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/dailyplanet/app/pager"
	"github.com/umputun/dailyplanet/app/settings"
)

// Threshold is how close to the tail the last visible item has to be
const Threshold = 2

// Loader is the paging side used by Trigger
type Loader interface {
	State() pager.State
	RequestNextPage() bool
}

// Viewport reports index of the last visible item, ok is false if nothing is visible
type Viewport interface {
	LastVisibleIndex() (idx int, ok bool)
}

// ViewportFunc is an adapter to use ordinary functions as Viewport
type ViewportFunc func() (int, bool)

// LastVisibleIndex calls f()
func (f ViewportFunc) LastVisibleIndex() (int, bool) { return f() }

// Trigger fires load-more on changes of the last visible index. It evaluates only the viewport of the
// active view type: list for HeadlinesOnly, grid for Tile.
type Trigger struct {
	loader    Loader
	viewports map[settings.ViewType]Viewport

	mu       sync.Mutex
	viewType settings.ViewType
	last     int
	hasLast  bool
	seen     bool
}

// NewTrigger makes Trigger for list and grid layouts, active layout is chosen by viewType
func NewTrigger(loader Loader, list, grid Viewport, viewType settings.ViewType) *Trigger {
	return &Trigger{
		loader:    loader,
		viewports: map[settings.ViewType]Viewport{settings.HeadlinesOnly: list, settings.Tile: grid},
		viewType:  viewType,
	}
}

// Evaluate is called on every layout pass. Requests the next page if the last visible index changed
// since the previous pass, it is within Threshold of the end, and the loader is neither loading nor done.
func (t *Trigger) Evaluate() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.evaluate()
}

// SetViewType switches the authoritative layout. Suppression restarts for the new layout and it is
// evaluated right away.
func (t *Trigger) SetViewType(viewType settings.ViewType) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if viewType == t.viewType {
		return false
	}
	log.Printf("[DEBUG] scroll trigger switched to %s layout", viewType)
	t.viewType = viewType
	t.seen = false
	return t.evaluate()
}

// ViewType returns the active view type
func (t *Trigger) ViewType() settings.ViewType {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewType
}

func (t *Trigger) evaluate() bool {
	vp, ok := t.viewports[t.viewType]
	if !ok || vp == nil {
		return false
	}

	idx, visible := vp.LastVisibleIndex()
	if t.seen && visible == t.hasLast && idx == t.last {
		return false // same scroll position
	}
	t.seen, t.last, t.hasLast = true, idx, visible
	if !visible {
		return false
	}

	st := t.loader.State()
	if idx < len(st.Articles)-Threshold || st.IsLoading || st.EndReached {
		return false
	}
	log.Printf("[DEBUG] load more, last visible %d of %d", idx, len(st.Articles))
	return t.loader.RequestNextPage()
}
