// Package render derives what the feed screen shows from paging state, display preferences and
// favorites. Everything here is a pure function of its inputs.
package render

import (
	"time"

	"github.com/umputun/dailyplanet/app/favorites"
	"github.com/umputun/dailyplanet/app/models"
	"github.com/umputun/dailyplanet/app/pager"
	"github.com/umputun/dailyplanet/app/settings"
)

// Icon names for the favorite button
const (
	IconFavorite       = "favorite"
	IconFavoriteBorder = "favorite_border"
)

// Status of the feed screen
type Status string

// feed screen statuses
const (
	StatusShimmer Status = "shimmer" // first page loading
	StatusError   Status = "error"
	StatusEmpty   Status = "empty"
	StatusList    Status = "list"
)

// EmptyMessage is shown when the feed has no articles
const EmptyMessage = "No articles found."

// Card is the render parameters of a single article
type Card struct {
	Key          string              `json:"key"`
	Article      models.Article      `json:"article"`
	Title        string              `json:"title"`
	SourceName   string              `json:"source_name"`
	Published    *time.Time          `json:"published,omitempty"`
	TitleSize    int                 `json:"title_size"`
	BodySize     int                 `json:"body_size"`
	FontFamily   settings.FontFamily `json:"font_family"`
	ShowImage    bool                `json:"show_image"`
	ShowDesc     bool                `json:"show_description"`
	MaxTitle     int                 `json:"max_title_lines"`
	MaxDesc      int                 `json:"max_description_lines"`
	Favorite     bool                `json:"favorite"`
	FavoriteIcon string              `json:"favorite_icon"`
}

// Feed is the whole screen model
type Feed struct {
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Cards       []Card         `json:"cards"`
	LoadingMore bool           `json:"loading_more"`
	EndReached  bool           `json:"end_reached"`
	SavedCount  int            `json:"saved_count"`
	Prefs       settings.Prefs `json:"prefs"`
}

// NewCard makes render parameters for an article
func NewCard(a models.Article, prefs settings.Prefs, favorite bool) Card {
	full := prefs.ViewType != settings.HeadlinesOnly
	res := Card{
		Key:          a.URL,
		Article:      a,
		Title:        a.DisplayTitle(),
		SourceName:   a.SourceName(),
		TitleSize:    prefs.TextSize.TitleFontSize(),
		BodySize:     prefs.TextSize.BodyFontSize(),
		FontFamily:   prefs.Font.Family(),
		ShowImage:    full,
		ShowDesc:     full,
		MaxTitle:     2,
		Favorite:     favorite,
		FavoriteIcon: IconFavoriteBorder,
	}
	if full {
		res.MaxDesc = 5
	} else {
		res.MaxTitle = 3
	}
	if favorite {
		res.FavoriteIcon = IconFavorite
	}
	if ts := a.Published(); !ts.IsZero() {
		res.Published = &ts
	}
	return res
}

// NewFeed makes the screen model. Error is shown over loaded cards, cards are kept so the host may
// still render them.
func NewFeed(st pager.State, prefs settings.Prefs, saved favorites.Index) Feed {
	res := Feed{
		Cards:       make([]Card, 0, len(st.Articles)),
		LoadingMore: st.IsLoading && len(st.Articles) > 0,
		EndReached:  st.EndReached,
		SavedCount:  saved.Len(),
		Prefs:       prefs,
	}
	for i, fav := range saved.Mark(st.Articles) {
		res.Cards = append(res.Cards, NewCard(st.Articles[i], prefs, fav))
	}

	switch {
	case st.IsLoading && len(st.Articles) == 0:
		res.Status = StatusShimmer
	case st.Error != "":
		res.Status, res.Message = StatusError, "Error: "+st.Error
	case len(st.Articles) == 0:
		res.Status, res.Message = StatusEmpty, EmptyMessage
	default:
		res.Status = StatusList
	}
	return res
}
