package http

import (
	"net/http"
	"strings"

	"github.com/Wyydra/ya-signal/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/ya-signal/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	Hub *ws.Hub
	cfg config.Config
}

func NewHandler(hub *ws.Hub, cfg config.Config) *Handler {
	return &Handler{
		Hub: hub,
		cfg: cfg,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	if h.cfg.StaticPath != "" {
		fs := http.FileServer(http.Dir(h.cfg.StaticPath))
		r.Handle("/static/*", http.StripPrefix("/static", fs))
	}

	r.Get(h.wsPath(), h.ServeWS)

	return r
}

func (h *Handler) wsPath() string {
	if h.cfg.WSPath == "" {
		return "/"
	}
	if len(h.cfg.WSPath) > 1 {
		return strings.TrimSuffix(h.cfg.WSPath, "/")
	}
	return h.cfg.WSPath
}
