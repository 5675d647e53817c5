package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/dailyplanet/app/pager"
)

func TestNewsAPI_FetchPage(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/v2/top-headlines", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "us", r.URL.Query().Get("country"))
		assert.Equal(t, "2", r.URL.Query().Get("pageSize"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		_, _ = fmt.Fprintf(w, `{"status":"ok","totalResults":3,"articles":[
			{"source":{"id":"bbc-news","name":"BBC News"},"title":"Title <b>%d</b>","url":"https://example.com/%d",
			 "description":"<p>Desc &amp; more</p>","publishedAt":"2024-01-15T10:30:00Z"},
			{"source":{"id":null,"name":"Reuters"},"title":"Second %d","url":"https://example.com/%d-b"}]}`,
			page, page, page, page)
	}))
	defer ts.Close()

	n, err := NewNewsAPI(Opts{BaseURL: ts.URL, APIKey: "secret", Country: "us", PageSize: 2})
	require.NoError(t, err)

	p1, err := n.FetchPage(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, p1.Articles, 2)
	assert.True(t, p1.HasMore)
	assert.Equal(t, "2", p1.NextCursor)
	assert.Equal(t, "Title 1", p1.Articles[0].Title)
	assert.Equal(t, "Desc & more", p1.Articles[0].Description)
	assert.Equal(t, "BBC News", p1.Articles[0].SourceName())
	assert.Nil(t, p1.Articles[1].Source.ID)

	p2, err := n.FetchPage(context.Background(), p1.NextCursor)
	require.NoError(t, err)
	assert.False(t, p2.HasMore, "2*2 >= 3 total results")
	assert.Empty(t, p2.NextCursor)
	assert.Equal(t, "https://example.com/2", p2.Articles[0].URL)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestNewsAPI_FilterKeepsHasMore(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":50,"articles":[
			{"title":"[Removed]","url":"https://removed.com"},
			{"title":"Sports: final score","url":"https://example.com/s"},
			{"title":"no url"}]}`))
	}))
	defer ts.Close()

	n, err := NewNewsAPI(Opts{BaseURL: ts.URL, PageSize: 3, TitleFilter: `^\[Removed\]$`})
	require.NoError(t, err)

	p, err := n.FetchPage(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, p.Articles, 1)
	assert.Equal(t, "https://example.com/s", p.Articles[0].URL)
	assert.True(t, p.HasMore, "short page after filtering is not the end")
}

func TestNewsAPI_SkipsFilteredPages(t *testing.T) {
	titles := map[string]string{"1": "sport news", "2": "sport again", "3": "world news", "4": "sport final"}
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		page := r.URL.Query().Get("page")
		_, _ = fmt.Fprintf(w, `{"status":"ok","totalResults":4,"articles":[{"title":%q,"url":"https://example.com/%s"}]}`,
			titles[page], page)
	}))
	defer ts.Close()

	n, err := NewNewsAPI(Opts{BaseURL: ts.URL, PageSize: 1, TitleFilter: "sport"})
	require.NoError(t, err)

	p, err := n.FetchPage(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, p.Articles, 1)
	assert.Equal(t, "world news", p.Articles[0].Title)
	assert.True(t, p.HasMore)
	assert.Equal(t, "4", p.NextCursor)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))

	p, err = n.FetchPage(context.Background(), p.NextCursor)
	require.NoError(t, err)
	assert.Empty(t, p.Articles, "last page filtered out")
	assert.False(t, p.HasMore)
}

func TestNewsAPI_FilteredPageKeepsPagerGoing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		title := fmt.Sprintf("world %d", page)
		if page == 1 {
			title = "sport news"
		}
		_, _ = fmt.Fprintf(w, `{"status":"ok","totalResults":100,"articles":[{"title":%q,"url":"https://example.com/%d"}]}`,
			title, page)
	}))
	defer ts.Close()

	n, err := NewNewsAPI(Opts{BaseURL: ts.URL, PageSize: 1, TitleFilter: "sport"})
	require.NoError(t, err)

	p := pager.New(n)
	defer p.Close()
	require.True(t, p.RequestNextPage())
	p.Wait()
	st := p.State()
	require.Len(t, st.Articles, 1)
	assert.Equal(t, "world 2", st.Articles[0].Title)
	assert.False(t, st.EndReached)

	require.True(t, p.RequestNextPage())
	p.Wait()
	st = p.State()
	require.Len(t, st.Articles, 2)
	assert.Equal(t, "world 3", st.Articles[1].Title)
}

func TestNewsAPI_Errors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`))
		case "2":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		default:
			_, _ = w.Write([]byte(`{"status":"ok",`))
		}
	}))
	defer ts.Close()

	n, err := NewNewsAPI(Opts{BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = n.FetchPage(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, "Your API key is invalid", err.Error())

	_, err = n.FetchPage(context.Background(), "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	_, err = n.FetchPage(context.Background(), "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't decode")

	_, err = n.FetchPage(context.Background(), "abc")
	assert.Error(t, err)
}

func TestNewsAPI_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	n, err := NewNewsAPI(Opts{BaseURL: ts.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	_, err = n.FetchPage(context.Background(), "")
	assert.Error(t, err)
}

func TestNewsAPI_CacheAndPurge(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":1,"articles":[{"title":"t","url":"https://example.com/1"}]}`))
	}))
	defer ts.Close()

	n, err := NewNewsAPI(Opts{BaseURL: ts.URL, CacheTTL: time.Minute})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = n.FetchPage(context.Background(), "")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	n.Purge()
	_, err = n.FetchPage(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestNewsAPI_BadFilter(t *testing.T) {
	_, err := NewNewsAPI(Opts{TitleFilter: "[unclosed"})
	assert.Error(t, err)
}
