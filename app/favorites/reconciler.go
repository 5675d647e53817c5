// Package favorites joins loaded articles with the saved articles set. Favorite status is never stored
// on the article itself, it is looked up by url in the index built from the repository's live list.
package favorites

import (
	"context"

	log "github.com/go-pkgz/lgr"
	"github.com/pkg/errors"

	"github.com/umputun/dailyplanet/app/live"
	"github.com/umputun/dailyplanet/app/models"
)

// Repository of saved articles. List emits the whole saved set on subscribe and after every change.
type Repository interface {
	List(ctx context.Context) (<-chan []models.Article, error)
	Save(article models.Article) error
	Delete(article models.Article) error
}

// Index is the saved set keyed by url, in repository order
type Index struct {
	urls     map[string]struct{}
	articles []models.Article
}

// NewIndex makes Index from saved articles
func NewIndex(saved []models.Article) Index {
	res := Index{urls: make(map[string]struct{}, len(saved)), articles: saved}
	for _, a := range saved {
		res.urls[a.URL] = struct{}{}
	}
	return res
}

// Contains reports whether an article with the same url is saved
func (x Index) Contains(a models.Article) bool {
	_, ok := x.urls[a.URL]
	return ok
}

// Mark returns favorite flag per article, in the same order
func (x Index) Mark(articles []models.Article) []bool {
	res := make([]bool, len(articles))
	for i, a := range articles {
		res[i] = x.Contains(a)
	}
	return res
}

// Articles returns saved articles
func (x Index) Articles() []models.Article { return x.articles }

// Len returns number of saved articles
func (x Index) Len() int { return len(x.urls) }

// Reconciler keeps Index in sync with Repository and forwards toggle commands to it
type Reconciler struct {
	repo  Repository
	index *live.Value[Index]
}

// New makes Reconciler with empty index, call Start to follow the repository
func New(repo Repository) *Reconciler {
	return &Reconciler{repo: repo, index: live.New(NewIndex(nil))}
}

// Start subscribes to the repository. The first saved set is installed before Start returns,
// later changes are applied in background until ctx is done.
func (r *Reconciler) Start(ctx context.Context) error {
	ch, err := r.repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "can't subscribe to saved articles")
	}

	select {
	case saved, ok := <-ch:
		if !ok {
			return errors.New("saved articles subscription closed")
		}
		r.index.Set(NewIndex(saved))
	case <-ctx.Done():
		return ctx.Err()
	}

	go func() {
		for saved := range ch {
			r.index.Set(NewIndex(saved))
		}
	}()
	return nil
}

// Index returns current saved index
func (r *Reconciler) Index() Index { return r.index.Get() }

// Watch returns channel with the current index and its changes
func (r *Reconciler) Watch(ctx context.Context) <-chan Index { return r.index.Watch(ctx) }

// IsFavorite checks article against the current saved set
func (r *Reconciler) IsFavorite(a models.Article) bool { return r.Index().Contains(a) }

// Toggle deletes a favorite article or saves a non-favorite one. Returns the new favorite status.
func (r *Reconciler) Toggle(a models.Article) (bool, error) {
	if r.IsFavorite(a) {
		if err := r.repo.Delete(a); err != nil {
			return true, errors.Wrapf(err, "can't unfavorite %s", a.URL)
		}
		log.Printf("[DEBUG] unfavorite %s", a.URL)
		return false, nil
	}
	if err := r.repo.Save(a); err != nil {
		return false, errors.Wrapf(err, "can't favorite %s", a.URL)
	}
	log.Printf("[DEBUG] favorite %s", a.URL)
	return true, nil
}
