// Package source implements feed data sources. NewsAPI loads top headlines page by page from newsapi.org
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/lcw"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/umputun/dailyplanet/app/models"
)

// NewsAPI is a pager.DataSource for newsapi.org top headlines. Cursor is the page number.
type NewsAPI struct {
	Opts
	client *http.Client
	cache  lcw.LoadingCache
	policy *bluemonday.Policy
	filter *regexp.Regexp
}

// Opts defines NewsAPI parameters
type Opts struct {
	BaseURL     string
	APIKey      string
	Country     string
	Category    string
	PageSize    int
	Timeout     time.Duration
	CacheTTL    time.Duration
	CacheKeys   int
	TitleFilter string // regexp, matching articles are skipped
}

type newsResponse struct {
	Status       string           `json:"status"`
	TotalResults int              `json:"totalResults"`
	Articles     []models.Article `json:"articles"`
	Code         string           `json:"code"`
	Message      string           `json:"message"`
}

// NewNewsAPI makes NewsAPI source with response cache
func NewNewsAPI(opts Opts) (*NewsAPI, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://newsapi.org"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	res := &NewsAPI{
		Opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		policy: bluemonday.StrictPolicy(),
		cache:  lcw.NewNopCache(),
	}

	if opts.TitleFilter != "" {
		re, err := regexp.Compile(opts.TitleFilter)
		if err != nil {
			return nil, errors.Wrapf(err, "bad title filter %q", opts.TitleFilter)
		}
		res.filter = re
	}

	if opts.CacheTTL > 0 {
		keys := opts.CacheKeys
		if keys <= 0 {
			keys = 100
		}
		cache, err := lcw.NewExpirableCache(lcw.MaxKeys(keys), lcw.TTL(opts.CacheTTL))
		if err != nil {
			return nil, errors.Wrap(err, "can't make response cache")
		}
		res.cache = cache
	}
	return res, nil
}

// FetchPage loads page with number from cursor, empty cursor is the first page.
// HasMore is decided by totalResults, not by the number of articles left after filtering.
// Pages emptied by the title filter are skipped while more pages remain upstream.
func (n *NewsAPI) FetchPage(ctx context.Context, cursor string) (models.FeedPage, error) {
	page := 1
	if cursor != "" {
		p, err := strconv.Atoi(cursor)
		if err != nil || p < 1 {
			return models.FeedPage{}, errors.Errorf("bad cursor %q", cursor)
		}
		page = p
	}

	for {
		res, err := n.fetch(ctx, page)
		if err != nil {
			return models.FeedPage{}, err
		}
		if len(res.Articles) > 0 || !res.HasMore {
			return res, nil
		}
		log.Printf("[DEBUG] newsapi page %d filtered out completely, load page %d", page, page+1)
		page++
	}
}

func (n *NewsAPI) fetch(ctx context.Context, page int) (models.FeedPage, error) {
	reqURL := n.pageURL(page)
	val, err := n.cache.Get(reqURL, func() (interface{}, error) {
		return n.load(ctx, reqURL)
	})
	if err != nil {
		return models.FeedPage{}, err
	}
	resp, ok := val.(newsResponse)
	if !ok {
		return models.FeedPage{}, errors.Errorf("unexpected cached value %T", val)
	}

	res := models.FeedPage{Articles: make([]models.Article, 0, len(resp.Articles))}
	for _, a := range resp.Articles {
		if a.URL == "" {
			log.Printf("[WARN] skip article without url, %q", a.Title)
			continue
		}
		a = n.clean(a)
		if n.skip(a) {
			log.Printf("[DEBUG] filtered %s", a.URL)
			continue
		}
		res.Articles = append(res.Articles, a)
	}
	res.HasMore = len(resp.Articles) > 0 && page*n.PageSize < resp.TotalResults
	if res.HasMore {
		res.NextCursor = strconv.Itoa(page + 1)
	}
	log.Printf("[DEBUG] newsapi page %d, %d articles, total %d, more %v", page, len(res.Articles), resp.TotalResults, res.HasMore)
	return res, nil
}

// Purge drops cached responses
func (n *NewsAPI) Purge() {
	n.cache.Purge()
}

func (n *NewsAPI) pageURL(page int) string {
	params := url.Values{}
	if n.Country != "" {
		params.Set("country", n.Country)
	}
	if n.Category != "" {
		params.Set("category", n.Category)
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(n.PageSize))
	return strings.TrimSuffix(n.BaseURL, "/") + "/v2/top-headlines?" + params.Encode()
}

func (n *NewsAPI) load(ctx context.Context, reqURL string) (newsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return newsResponse{}, errors.Wrap(err, "can't make request")
	}
	req.Header.Set("X-Api-Key", n.APIKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return newsResponse{}, errors.Wrap(err, "can't get headlines")
	}
	defer resp.Body.Close() // nolint

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return newsResponse{}, errors.Wrap(err, "can't read headlines")
	}

	res := newsResponse{}
	if err := json.Unmarshal(body, &res); err != nil {
		if resp.StatusCode != http.StatusOK {
			return newsResponse{}, errors.Errorf("newsapi status %d", resp.StatusCode)
		}
		return newsResponse{}, errors.Wrap(err, "can't decode headlines")
	}
	if res.Status == "error" || resp.StatusCode != http.StatusOK {
		msg := res.Message
		if msg == "" {
			msg = fmt.Sprintf("newsapi status %d", resp.StatusCode)
		}
		return newsResponse{}, errors.New(msg)
	}
	return res, nil
}

// clean strips html from text fields, newsapi passes through whatever publishers send
func (n *NewsAPI) clean(a models.Article) models.Article {
	a.Title = n.text(a.Title)
	a.Description = n.text(a.Description)
	a.Content = n.text(a.Content)
	return a
}

func (n *NewsAPI) text(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(n.policy.Sanitize(s)))
}

func (n *NewsAPI) skip(a models.Article) bool {
	return n.filter != nil && n.filter.MatchString(a.Title)
}
