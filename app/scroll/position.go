package scroll

import "sync"

// Position is a Viewport set by the host whenever its layout reports visible items
type Position struct {
	mu      sync.Mutex
	idx     int
	visible bool
}

// Set records the last visible index
func (p *Position) Set(idx int) {
	p.mu.Lock()
	p.idx, p.visible = idx, true
	p.mu.Unlock()
}

// Clear marks nothing as visible
func (p *Position) Clear() {
	p.mu.Lock()
	p.idx, p.visible = 0, false
	p.mu.Unlock()
}

// LastVisibleIndex implements Viewport
func (p *Position) LastVisibleIndex() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idx, p.visible
}
