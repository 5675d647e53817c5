// Package api provides a headless http front for a reader session. It exposes the render model and
// user actions as json endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/didip/tollbooth"
	"github.com/didip/tollbooth_chi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/pkg/errors"

	"github.com/umputun/dailyplanet/app/models"
	"github.com/umputun/dailyplanet/app/reader"
	feed "github.com/umputun/dailyplanet/app/render"
	"github.com/umputun/dailyplanet/app/settings"
)

// Reader is a feed screen session
type Reader interface {
	View() feed.Feed
	Scrolled(lastVisible int) bool
	LoadMore() bool
	Refresh()
	Saved() []models.Article
	ToggleFavorite(url string) (bool, error)
	Open(ctx context.Context, url string) error
	Share(ctx context.Context, url string) error
}

// Preferences reads and writes display preferences
type Preferences interface {
	Prefs() settings.Prefs
	SetTextSize(v settings.TextSize) error
	SetFont(v settings.AppFont) error
	SetViewType(v settings.ViewType) error
}

// Server is a rest server for the reader
type Server struct {
	Version   string
	Reader    Reader
	Prefs     Preferences
	RateLimit float64 // requests per second, 0 disables limiter

	httpServer *http.Server
}

type urlRequest struct {
	URL string `json:"url"`
}

type scrollRequest struct {
	LastVisible int `json:"last_visible"`
}

// Run starts http server on port and blocks until ctx is done
func (s *Server) Run(ctx context.Context, port int) error {
	log.Printf("[INFO] activate rest server on :%d", port)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] rest server shutdown, %v", err)
		}
	}()

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		log.Printf("[INFO] rest server terminated")
		return nil
	}
	return errors.Wrap(err, "rest server failed")
}

func (s *Server) router() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	router.Use(rest.AppInfo("dailyplanet", "umputun", s.Version), rest.Ping)
	if s.RateLimit > 0 {
		router.Use(tollbooth_chi.LimitHandler(tollbooth.NewLimiter(s.RateLimit, nil)))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/feed", s.getFeedCtrl)
		r.Post("/feed/scroll", s.scrollCtrl)
		r.Post("/feed/more", s.moreCtrl)
		r.Post("/feed/refresh", s.refreshCtrl)
		r.Get("/settings", s.getSettingsCtrl)
		r.Put("/settings", s.putSettingsCtrl)
		r.Get("/favorites", s.getFavoritesCtrl)
		r.Post("/favorites/toggle", s.toggleFavoriteCtrl)
		r.Post("/open", s.openCtrl)
		r.Post("/share", s.shareCtrl)
	})
	return router
}

// GET /api/v1/feed
func (s *Server) getFeedCtrl(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.Reader.View())
}

// POST /api/v1/feed/scroll {"last_visible": 18}
func (s *Server) scrollCtrl(w http.ResponseWriter, r *http.Request) {
	req := scrollRequest{}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "can't decode scroll request")
		return
	}
	render.JSON(w, r, rest.JSON{"requested": s.Reader.Scrolled(req.LastVisible)})
}

// POST /api/v1/feed/more
func (s *Server) moreCtrl(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, rest.JSON{"requested": s.Reader.LoadMore()})
}

// POST /api/v1/feed/refresh
func (s *Server) refreshCtrl(w http.ResponseWriter, r *http.Request) {
	s.Reader.Refresh()
	render.JSON(w, r, rest.JSON{"status": "ok"})
}

// GET /api/v1/settings
func (s *Server) getSettingsCtrl(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.Prefs.Prefs())
}

// PUT /api/v1/settings, empty fields are left unchanged
func (s *Server) putSettingsCtrl(w http.ResponseWriter, r *http.Request) {
	req := settings.Prefs{}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "can't decode settings")
		return
	}

	if err := s.updatePrefs(req); err != nil {
		code := http.StatusInternalServerError
		var perr *settings.ParseError
		if errors.As(err, &perr) {
			code = http.StatusBadRequest
		}
		rest.SendErrorJSON(w, r, log.Default(), code, err, "can't update settings")
		return
	}
	render.JSON(w, r, s.Prefs.Prefs())
}

func (s *Server) updatePrefs(req settings.Prefs) error {
	if req.TextSize != "" {
		v, err := settings.ParseTextSize(string(req.TextSize))
		if err != nil {
			return err
		}
		if err := s.Prefs.SetTextSize(v); err != nil {
			return err
		}
	}
	if req.Font != "" {
		v, err := settings.ParseFont(string(req.Font))
		if err != nil {
			return err
		}
		if err := s.Prefs.SetFont(v); err != nil {
			return err
		}
	}
	if req.ViewType != "" {
		v, err := settings.ParseViewType(string(req.ViewType))
		if err != nil {
			return err
		}
		if err := s.Prefs.SetViewType(v); err != nil {
			return err
		}
	}
	return nil
}

// GET /api/v1/favorites
func (s *Server) getFavoritesCtrl(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.Reader.Saved())
}

// POST /api/v1/favorites/toggle {"url": "https://..."}
func (s *Server) toggleFavoriteCtrl(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeURL(w, r)
	if !ok {
		return
	}
	fav, err := s.Reader.ToggleFavorite(req.URL)
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), errCode(err), err, "can't toggle favorite")
		return
	}
	render.JSON(w, r, rest.JSON{"url": req.URL, "favorite": fav})
}

// POST /api/v1/open {"url": "https://..."}
func (s *Server) openCtrl(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeURL(w, r)
	if !ok {
		return
	}
	if err := s.Reader.Open(r.Context(), req.URL); err != nil {
		rest.SendErrorJSON(w, r, log.Default(), errCode(err), err, "can't open article")
		return
	}
	render.JSON(w, r, rest.JSON{"status": "ok"})
}

// POST /api/v1/share {"url": "https://..."}
func (s *Server) shareCtrl(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeURL(w, r)
	if !ok {
		return
	}
	if err := s.Reader.Share(r.Context(), req.URL); err != nil {
		rest.SendErrorJSON(w, r, log.Default(), errCode(err), err, "can't share article")
		return
	}
	render.JSON(w, r, rest.JSON{"status": "ok"})
}

func (s *Server) decodeURL(w http.ResponseWriter, r *http.Request) (urlRequest, bool) {
	req := urlRequest{}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "can't decode request")
		return req, false
	}
	if req.URL == "" {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, errors.New("empty url"), "url is required")
		return req, false
	}
	return req, true
}

func errCode(err error) int {
	if errors.Is(err, reader.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
