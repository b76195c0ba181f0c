package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/auth"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/db"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/models"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/service"
	"go.uber.org/zap"
)

// Service is the application layer as the HTTP transport sees it.
type Service interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	ImportPlaylist(ctx context.Context, userID, input string) (*service.PlaylistView, error)
	ListPlaylists(ctx context.Context, userID string) ([]service.PlaylistView, error)
	GetPlaylist(ctx context.Context, userID, id string) (*service.PlaylistView, error)
	ToggleVideo(ctx context.Context, userID, playlistID, videoID string) (*service.ToggleResult, error)
	SetSpeed(ctx context.Context, userID, playlistID string, speed float64) (*service.SpeedResult, error)
	TrackWatch(ctx context.Context, userID, videoID string, minutes int) (*service.TrackResult, error)
	UserStats(ctx context.Context, userID string) (*service.UserStats, error)
	Profile(ctx context.Context, userID string) (*service.Profile, error)
}

// StatusSource backs the readiness and stats probes.
type StatusSource interface {
	Ping(ctx context.Context) error
	GetStats(ctx context.Context) (*db.Stats, error)
}

type Handler struct {
	svc           Service
	status        StatusSource
	sessions      *auth.Sessions
	importLimiter *RateLimiter
	log           *zap.Logger
	secureCookies bool
}

func NewHandler(svc Service, status StatusSource, sessions *auth.Sessions, importLimiter *RateLimiter, log *zap.Logger, secureCookies bool) *Handler {
	return &Handler{
		svc:           svc,
		status:        status,
		sessions:      sessions,
		importLimiter: importLimiter,
		log:           log,
		secureCookies: secureCookies,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Get("/stats", h.Stats)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Route("/api/playlists", func(r chi.Router) {
			r.With(h.importLimiter.PerUser).Post("/import", h.ImportPlaylist)
			r.Get("/", h.ListPlaylists)
			r.Get("/{id}", h.GetPlaylist)
			r.Post("/{id}/videos/{videoId}/toggle", h.ToggleVideo)
			r.Post("/{id}/speed", h.SetSpeed)
		})

		r.Route("/api/analytics", func(r chi.Router) {
			r.Post("/track-watch", h.TrackWatch)
			r.Get("/user-stats", h.UserStats)
			r.Get("/profile", h.Profile)
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.status.Ping(r.Context()); err != nil {
		h.log.Error("Readiness check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Ready"))
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.status.GetStats(r.Context())
	if err != nil {
		h.log.Error("Failed to get stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.svc.Register(r.Context(), creds.Username, creds.Email, creds.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.startSession(w, r, user, http.StatusCreated)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.svc.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.startSession(w, r, user, http.StatusOK)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	auth.SetCookie(w, token, h.sessions.TTL(), h.secureCookies)

	var resp userResponse
	resp.User.ID = user.ID
	resp.User.Username = user.Username
	resp.User.Email = user.Email
	writeJSON(w, status, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

type importRequest struct {
	PlaylistID string `json:"playlistId"`
}

func (h *Handler) ImportPlaylist(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFromRequest(r)

	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	view, err := h.svc.ImportPlaylist(r.Context(), userID, req.PlaylistID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFromRequest(r)

	views, err := h.svc.ListPlaylists(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFromRequest(r)

	view, err := h.svc.GetPlaylist(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFromRequest(r)

	res, err := h.svc.ToggleVideo(r.Context(), userID, chi.URLParam(r, "id"), chi.URLParam(r, "videoId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type speedRequest struct {
	Speed *float64 `json:"speed"`
}

func (h *Handler) SetSpeed(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFromRequest(r)

	var req speedRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Speed == nil {
		writeError(w, http.StatusBadRequest, "speed is required")
		return
	}

	res, err := h.svc.SetSpeed(r.Context(), userID, chi.URLParam(r, "id"), *req.Speed)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type trackWatchRequest struct {
	VideoID          string `json:"videoId"`
	WatchTimeMinutes int    `json:"watchTimeMinutes"`
}

func (h *Handler) TrackWatch(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFromRequest(r)

	var req trackWatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.svc.TrackWatch(r.Context(), userID, req.VideoID, req.WatchTimeMinutes)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFromRequest(r)

	stats, err := h.svc.UserStats(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFromRequest(r)

	profile, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
