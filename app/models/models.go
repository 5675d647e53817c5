// Package models contains DTO objects shared by the reader packages
package models

import (
	"time"
)

// Article presents a single news item. URL is the identity, two articles with the same URL
// are the same entity even if other fields differ.
type Article struct {
	URL         string  `json:"url"`
	Author      string  `json:"author,omitempty"`
	Content     string  `json:"content,omitempty"`
	Description string  `json:"description,omitempty"`
	PublishedAt string  `json:"publishedAt,omitempty"`
	Source      *Source `json:"source,omitempty"`
	Title       string  `json:"title,omitempty"`
	URLToImage  string  `json:"urlToImage,omitempty"`
}

// Source presents article's publisher
type Source struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

// FeedPage is one batch of articles returned by a single fetch
type FeedPage struct {
	Articles   []Article
	NextCursor string
	HasMore    bool
}

// Equal reports true if both id and name match
func (s *Source) Equal(other *Source) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Name != other.Name {
		return false
	}
	if s.ID == nil || other.ID == nil {
		return s.ID == other.ID
	}
	return *s.ID == *other.ID
}

// DisplayTitle returns title or placeholder for untitled articles
func (a Article) DisplayTitle() string {
	if a.Title == "" {
		return "No Title"
	}
	return a.Title
}

// SourceName returns publisher name or placeholder
func (a Article) SourceName() string {
	if a.Source == nil || a.Source.Name == "" {
		return "Unknown Source"
	}
	return a.Source.Name
}

// Published parses PublishedAt, zero time if absent or not ISO-8601
func (a Article) Published() time.Time {
	if a.PublishedAt == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, a.PublishedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}
