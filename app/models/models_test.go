package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Equal(t *testing.T) {
	bbc, cnn := "bbc-news", "cnn"
	tbl := []struct {
		a, b *Source
		eq   bool
	}{
		{&Source{ID: &bbc, Name: "BBC News"}, &Source{ID: &bbc, Name: "BBC News"}, true},
		{&Source{ID: &bbc, Name: "BBC News"}, &Source{ID: &cnn, Name: "BBC News"}, false},
		{&Source{ID: &bbc, Name: "BBC News"}, &Source{ID: &bbc, Name: "BBC"}, false},
		{&Source{Name: "BBC News"}, &Source{Name: "BBC News"}, true},
		{&Source{Name: "BBC News"}, &Source{ID: &bbc, Name: "BBC News"}, false},
		{nil, nil, true},
		{nil, &Source{Name: "x"}, false},
	}

	for i, tt := range tbl {
		assert.Equal(t, tt.eq, tt.a.Equal(tt.b), "case #%d", i)
	}
}

func TestArticle_Fallbacks(t *testing.T) {
	a := Article{URL: "https://example.com/a"}
	assert.Equal(t, "No Title", a.DisplayTitle())
	assert.Equal(t, "Unknown Source", a.SourceName())
	assert.True(t, a.Published().IsZero())

	a = Article{URL: "https://example.com/a", Title: "t1", Source: &Source{Name: "BBC News"},
		PublishedAt: "2024-01-15T10:30:00Z"}
	assert.Equal(t, "t1", a.DisplayTitle())
	assert.Equal(t, "BBC News", a.SourceName())
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), a.Published())

	a.PublishedAt = "yesterday"
	assert.True(t, a.Published().IsZero())
}

func TestArticle_DecodeNewsAPI(t *testing.T) {
	data := `{"source":{"id":null,"name":"Reuters"},"author":"Jane","title":"Markets",
		"url":"https://example.com/m","urlToImage":"https://example.com/m.jpg","publishedAt":"2024-01-15T10:30:00Z"}`

	var a Article
	require.NoError(t, json.Unmarshal([]byte(data), &a))
	assert.Equal(t, "https://example.com/m", a.URL)
	assert.Equal(t, "https://example.com/m.jpg", a.URLToImage)
	require.NotNil(t, a.Source)
	assert.Nil(t, a.Source.ID)
	assert.Equal(t, "Reuters", a.Source.Name)
}
