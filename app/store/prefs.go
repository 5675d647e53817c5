package store

import (
	"context"
	"sync"

	log "github.com/go-pkgz/lgr"
	bolt "go.etcd.io/bbolt"

	"github.com/umputun/dailyplanet/app/live"
)

// Prefs is a key-value preference store with live subscriptions per key.
// Values are plain strings, an empty string stands for absent key.
type Prefs struct {
	db *bolt.DB

	mu   sync.Mutex
	keys map[string]*live.Value[string]
}

// NewPrefs makes preference store on top of opened BoltStore
func NewPrefs(b *BoltStore) *Prefs {
	return &Prefs{db: b.DB, keys: map[string]*live.Value[string]{}}
}

// Get returns stored value, ok is false if key never set
func (p *Prefs) Get(key string) (value string, ok bool, err error) {
	err = p.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketPreferences)).Get([]byte(key)); v != nil {
			value, ok = string(v), true
		}
		return nil
	})
	return value, ok, err
}

// Set persists value and publishes what was actually stored to the key's subscribers
func (p *Prefs) Set(key, value string) error {
	err := p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketPreferences)).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return &WriteError{Key: key, Err: err}
	}
	log.Printf("[DEBUG] preference %s=%s", key, value)

	p.mu.Lock()
	defer p.mu.Unlock() // keeps publishing in write order
	if lv, ok := p.keys[key]; ok {
		stored, _, e := p.Get(key)
		if e != nil {
			log.Printf("[WARN] can't read back %s, %v", key, e)
			return nil
		}
		lv.Set(stored)
	}
	return nil
}

// Subscribe returns channel with the current value of key followed by every change. The channel closes with ctx.
func (p *Prefs) Subscribe(ctx context.Context, key string) (<-chan string, error) {
	p.mu.Lock()
	lv, ok := p.keys[key]
	if !ok {
		current, _, err := p.Get(key)
		if err != nil {
			p.mu.Unlock()
			return nil, err
		}
		lv = live.New(current)
		p.keys[key] = lv
	}
	p.mu.Unlock()
	return lv.Watch(ctx), nil
}
