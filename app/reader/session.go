// Package reader composes the feed screen. Session owns a pager, a scroll trigger and a favorites
// reconciler for one screen lifetime and keeps the render model current while preferences, pages or
// saved articles change.
package reader

import (
	"context"

	log "github.com/go-pkgz/lgr"
	"github.com/pkg/errors"

	"github.com/umputun/dailyplanet/app/favorites"
	"github.com/umputun/dailyplanet/app/live"
	"github.com/umputun/dailyplanet/app/models"
	"github.com/umputun/dailyplanet/app/pager"
	"github.com/umputun/dailyplanet/app/render"
	"github.com/umputun/dailyplanet/app/scroll"
	"github.com/umputun/dailyplanet/app/settings"
)

// ErrNotFound returned for urls not present in the feed or saved articles
var ErrNotFound = errors.New("article not found")

// LinkOpener opens a url outside of the reader
type LinkOpener interface {
	Open(ctx context.Context, url string) error
}

// Sharer sends an article somewhere else
type Sharer interface {
	Share(ctx context.Context, article models.Article) error
}

// Purger is implemented by data sources with a cache to drop on refresh
type Purger interface {
	Purge()
}

// Params for New
type Params struct {
	Source   pager.DataSource
	Settings *settings.Stream
	Saved    favorites.Repository
	Opener   LinkOpener // optional
	Sharer   Sharer     // optional
}

// Session is a feed screen instance, must be closed when the screen goes away
type Session struct {
	Params
	pager     *pager.Pager
	favorites *favorites.Reconciler
	trigger   *scroll.Trigger
	list      *scroll.Position
	grid      *scroll.Position
	view      *live.Value[render.Feed]

	cancel context.CancelFunc
	done   chan struct{}
}

// New makes Session and starts loading the first page
func New(params Params) (*Session, error) {
	if params.Source == nil || params.Settings == nil || params.Saved == nil {
		return nil, errors.New("source, settings and saved repository are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	res := &Session{
		Params:    params,
		pager:     pager.New(params.Source),
		favorites: favorites.New(params.Saved),
		list:      &scroll.Position{},
		grid:      &scroll.Position{},
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	if err := res.favorites.Start(ctx); err != nil {
		cancel()
		return nil, err
	}

	prefs := params.Settings.Prefs()
	res.trigger = scroll.NewTrigger(res.pager, res.list, res.grid, prefs.ViewType)
	res.pager.RequestNextPage()
	res.view = live.New(render.NewFeed(res.pager.State(), prefs, res.favorites.Index()))

	go res.run(ctx)
	return res, nil
}

// View returns the current render model
func (s *Session) View() render.Feed { return s.view.Get() }

// Watch returns channel with the current render model followed by every change
func (s *Session) Watch(ctx context.Context) <-chan render.Feed { return s.view.Watch(ctx) }

// State returns the current paging state
func (s *Session) State() pager.State { return s.pager.State() }

// Scrolled records the last visible index of the active layout and evaluates the scroll trigger.
// The layout follows the stored view type, the trigger is switched here if the run loop hasn't yet.
func (s *Session) Scrolled(lastVisible int) bool {
	vt := s.Settings.ViewType()
	s.viewport(vt).Set(lastVisible)
	fired := s.trigger.SetViewType(vt)
	return s.trigger.Evaluate() || fired
}

// LayoutPass evaluates the scroll trigger without a position change
func (s *Session) LayoutPass() bool { return s.trigger.Evaluate() }

// LoadMore is an explicit user request for the next page, e.g. retry after an error
func (s *Session) LoadMore() bool { return s.pager.RequestNextPage() }

// Refresh drops everything loaded and starts from the first page
func (s *Session) Refresh() {
	if p, ok := s.Source.(Purger); ok {
		p.Purge()
	}
	s.pager.Reset()
	s.list.Clear()
	s.grid.Clear()
	s.pager.RequestNextPage()
}

// Saved returns saved articles
func (s *Session) Saved() []models.Article { return s.favorites.Index().Articles() }

// ToggleFavorite saves or deletes article by url, returns the new favorite status
func (s *Session) ToggleFavorite(url string) (bool, error) {
	a, err := s.find(url)
	if err != nil {
		return false, err
	}
	return s.favorites.Toggle(a)
}

// Open passes article url to the link opener
func (s *Session) Open(ctx context.Context, url string) error {
	if s.Opener == nil {
		return errors.New("no link opener")
	}
	a, err := s.find(url)
	if err != nil {
		return err
	}
	return errors.Wrapf(s.Opener.Open(ctx, a.URL), "can't open %s", a.URL)
}

// Share sends article to the configured sharer
func (s *Session) Share(ctx context.Context, url string) error {
	if s.Sharer == nil {
		return errors.New("sharing is not configured")
	}
	a, err := s.find(url)
	if err != nil {
		return err
	}
	return errors.Wrapf(s.Sharer.Share(ctx, a), "can't share %s", a.URL)
}

// Close tears the session down. Late page results are ignored, watchers are released.
func (s *Session) Close() {
	s.pager.Close()
	s.cancel()
	<-s.done
	log.Printf("[DEBUG] session closed")
}

func (s *Session) find(url string) (models.Article, error) {
	for _, a := range s.pager.State().Articles {
		if a.URL == url {
			return a, nil
		}
	}
	for _, a := range s.favorites.Index().Articles() {
		if a.URL == url {
			return a, nil
		}
	}
	return models.Article{}, errors.Wrap(ErrNotFound, url)
}

func (s *Session) viewport(vt settings.ViewType) *scroll.Position {
	if vt == settings.HeadlinesOnly {
		return s.list
	}
	return s.grid
}

// run is the single writer of the render model
func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	pages := s.pager.Watch(ctx)
	sizes := s.Settings.WatchTextSize(ctx)
	fonts := s.Settings.WatchFont(ctx)
	views := s.Settings.WatchViewType(ctx)
	saved := s.favorites.Watch(ctx)

	state, prefs, index := s.pager.State(), s.Settings.Prefs(), s.favorites.Index()
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-pages:
			if !ok {
				return
			}
			state = v
		case v, ok := <-sizes:
			if !ok {
				return
			}
			prefs.TextSize = v
		case v, ok := <-fonts:
			if !ok {
				return
			}
			prefs.Font = v
		case v, ok := <-views:
			if !ok {
				return
			}
			prefs.ViewType = v
			s.trigger.SetViewType(v)
		case v, ok := <-saved:
			if !ok {
				return
			}
			index = v
		}
		s.view.Set(render.NewFeed(state, prefs, index))
	}
}
