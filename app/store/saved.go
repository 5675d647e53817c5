package store

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/umputun/dailyplanet/app/live"
	"github.com/umputun/dailyplanet/app/models"
)

// Saved is the saved (favorite) articles repository, keyed by article url
type Saved struct {
	db   *bolt.DB
	now  func() time.Time
	list *live.Value[[]models.Article]
}

type savedArticle struct {
	Article models.Article `json:"article"`
	SavedAt time.Time      `json:"saved_at"`
}

// NewSaved makes saved articles repository on top of opened BoltStore
func NewSaved(b *BoltStore) (*Saved, error) {
	res := &Saved{db: b.DB, now: time.Now}
	articles, err := res.load()
	if err != nil {
		return nil, err
	}
	res.list = live.New(articles)
	return res, nil
}

// List returns channel with all saved articles, newest first, re-sent on every change
func (s *Saved) List(ctx context.Context) (<-chan []models.Article, error) {
	return s.list.Watch(ctx), nil
}

// Save stores article, an article with the same url is replaced
func (s *Saved) Save(article models.Article) error {
	if article.URL == "" {
		return errors.New("can't save article without url")
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		data, e := json.Marshal(&savedArticle{Article: article, SavedAt: s.now()})
		if e != nil {
			return e
		}
		return tx.Bucket([]byte(bucketSaved)).Put(s.key(article), data)
	})
	if err != nil {
		return &WriteError{Key: article.URL, Err: err}
	}
	log.Printf("[INFO] save article: '%s'", article.URL)
	s.publish()
	return nil
}

// Delete removes article by its url, no error if missing
func (s *Saved) Delete(article models.Article) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSaved)).Delete(s.key(article))
	})
	if err != nil {
		return &WriteError{Key: article.URL, Err: err}
	}
	log.Printf("[INFO] delete article: '%s'", article.URL)
	s.publish()
	return nil
}

func (s *Saved) publish() {
	s.list.Update(func(prev []models.Article) []models.Article {
		articles, err := s.load()
		if err != nil {
			log.Printf("[WARN] failed to reload saved articles, %v", err)
			return prev
		}
		return articles
	})
}

func (s *Saved) load() ([]models.Article, error) {
	var items []savedArticle
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSaved)).ForEach(func(k, v []byte) error {
			item := savedArticle{}
			if err := json.Unmarshal(v, &item); err != nil {
				log.Printf("[WARN] failed to unmarshal %s, %v", string(k), err)
				return nil
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "can't load saved articles")
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].SavedAt.After(items[j].SavedAt) })
	res := make([]models.Article, 0, len(items))
	for _, item := range items {
		res = append(res, item.Article)
	}
	return res, nil
}

func (s *Saved) key(a models.Article) []byte {
	return []byte(a.URL)
}
