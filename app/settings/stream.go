package settings

import (
	"context"
	"sync"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"
	"github.com/pkg/errors"

	"github.com/umputun/dailyplanet/app/live"
)

// PreferenceStore is a durable key-value store with live subscriptions.
// Subscribe replays the current value (empty string if absent) and emits on every change.
type PreferenceStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Subscribe(ctx context.Context, key string) (<-chan string, error)
}

// Stream exposes live display preferences backed by PreferenceStore.
// Each preference is subscribed to the store only while it has watchers.
type Stream struct {
	textSize *setting[TextSize]
	font     *setting[AppFont]
	viewType *setting[ViewType]
}

// NewStream makes Stream and loads current values from the store
func NewStream(store PreferenceStore) *Stream {
	res := &Stream{
		textSize: newSetting(store, KeyTextSize, Medium, ParseTextSize),
		font:     newSetting(store, KeyFont, Default, ParseFont),
		viewType: newSetting(store, KeyViewType, Tile, ParseViewType),
	}

	swg := syncs.NewSizedGroup(3)
	swg.Go(func(context.Context) { res.textSize.reload() })
	swg.Go(func(context.Context) { res.font.reload() })
	swg.Go(func(context.Context) { res.viewType.reload() })
	swg.Wait()
	return res
}

// TextSize returns current text size
func (s *Stream) TextSize() TextSize { return s.textSize.value.Get() }

// Font returns current font
func (s *Stream) Font() AppFont { return s.font.value.Get() }

// ViewType returns current view type
func (s *Stream) ViewType() ViewType { return s.viewType.value.Get() }

// Prefs returns snapshot of all current preferences
func (s *Stream) Prefs() Prefs {
	return Prefs{TextSize: s.TextSize(), Font: s.Font(), ViewType: s.ViewType()}
}

// SetTextSize persists text size and publishes the stored value
func (s *Stream) SetTextSize(v TextSize) error { return s.textSize.set(v) }

// SetFont persists font and publishes the stored value
func (s *Stream) SetFont(v AppFont) error { return s.font.set(v) }

// SetViewType persists view type and publishes the stored value
func (s *Stream) SetViewType(v ViewType) error { return s.viewType.set(v) }

// WatchTextSize returns channel with current text size and its changes
func (s *Stream) WatchTextSize(ctx context.Context) <-chan TextSize { return s.textSize.value.Watch(ctx) }

// WatchFont returns channel with current font and its changes
func (s *Stream) WatchFont(ctx context.Context) <-chan AppFont { return s.font.value.Watch(ctx) }

// WatchViewType returns channel with current view type and its changes
func (s *Stream) WatchViewType(ctx context.Context) <-chan ViewType { return s.viewType.value.Watch(ctx) }

type setting[T ~string] struct {
	store PreferenceStore
	key   string
	def   T
	parse func(string) (T, error)
	value *live.Value[T]

	mu     sync.Mutex
	cancel context.CancelFunc

	// publishMu serializes store read-back with publishing, the cached value never lags the store
	publishMu sync.Mutex
}

func newSetting[T ~string](store PreferenceStore, key string, def T, parse func(string) (T, error)) *setting[T] {
	res := &setting[T]{store: store, key: key, def: def, parse: parse}
	res.value = live.New(def, live.OnActive[T](res.resume), live.OnIdle[T](res.pause))
	return res
}

// decode fails closed to the default on absent or unknown value
func (s *setting[T]) decode(raw string) T {
	if raw == "" {
		return s.def
	}
	v, err := s.parse(raw)
	if err != nil {
		log.Printf("[WARN] %v, fallback to %s", err, s.def)
		return s.def
	}
	return v
}

func (s *setting[T]) reload() {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	s.load()
}

// load reads the stored value and publishes it, must be called with publishMu held
func (s *setting[T]) load() {
	raw, _, err := s.store.Get(s.key)
	if err != nil {
		log.Printf("[WARN] can't read %s, %v", s.key, err)
		return
	}
	s.value.Set(s.decode(raw))
}

// set writes to the store and publishes the read-back value as one step, so the last write wins
func (s *setting[T]) set(v T) error {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	if err := s.store.Set(s.key, string(v)); err != nil {
		return errors.Wrapf(err, "can't set %s to %s", s.key, v)
	}
	s.load()
	return nil
}

func (s *setting[T]) resume() {
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.store.Subscribe(ctx, s.key)
	if err != nil {
		cancel()
		log.Printf("[WARN] can't subscribe to %s, %v", s.key, err)
		return
	}
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	log.Printf("[DEBUG] %s subscription resumed", s.key)

	// the store replays its current value first, so resumed watchers get the latest, not a stale cache.
	// notifications only signal a change, the value is read back under publishMu
	if _, ok := <-ch; ok {
		s.reload()
	}
	go func() {
		for range ch {
			s.reload()
		}
	}()
}

func (s *setting[T]) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		log.Printf("[DEBUG] %s subscription paused", s.key)
	}
}
