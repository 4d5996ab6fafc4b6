package catalog

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/audiosessions/backend/internal/logging"
	"github.com/audiosessions/backend/internal/metrics"
	middlewarePkg "github.com/audiosessions/backend/internal/middleware"
	"github.com/audiosessions/backend/internal/model/catalog"
	"github.com/audiosessions/backend/pkg/utils"
)

// AccessChecker decides whether a session token unlocks restricted genres.
type AccessChecker interface {
	IsAuthenticated(ctx context.Context, token string) bool
}

// Handler catalog服务的HTTP处理器
type Handler struct {
	store  catalog.Store
	access AccessChecker
}

// New 创建catalog处理器
func New(store catalog.Store, access AccessChecker) *Handler {
	return &Handler{
		store:  store,
		access: access,
	}
}

// RegisterRoutes 注册catalog相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{genre}", h.handleListSessions)
	r.Get("/sessions/{genre}/{sessionID}", h.handleGetSession)
}

// ListResponse is the body of a genre listing.
type ListResponse struct {
	Genre    string            `json:"genre"`
	Sessions []catalog.Session `json:"sessions"`
	Count    int               `json:"count"`
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	genre := chi.URLParam(r, "genre")
	if err := h.requireAccess(r, genre); err != nil {
		utils.RespondErr(w, err)
		return
	}

	sessions, err := h.store.List(genre)
	if err != nil {
		h.respondLookupErr(w, genre, err)
		return
	}

	metrics.CatalogLookups.WithLabelValues(genre, "ok").Inc()
	utils.RespondJSON(w, http.StatusOK, ListResponse{
		Genre:    genre,
		Sessions: sessions,
		Count:    len(sessions),
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	genre := chi.URLParam(r, "genre")
	if err := h.requireAccess(r, genre); err != nil {
		utils.RespondErr(w, err)
		return
	}

	session, err := h.store.Find(genre, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondLookupErr(w, genre, err)
		return
	}

	metrics.CatalogLookups.WithLabelValues(genre, "ok").Inc()
	utils.RespondJSON(w, http.StatusOK, session)
}

// requireAccess rejects unknown genres first, then restricted genres without an
// authenticated session, so identifiers inside a locked genre are never probed.
func (h *Handler) requireAccess(r *http.Request, genre string) error {
	if !h.store.Has(genre) {
		metrics.CatalogLookups.WithLabelValues("unknown", "not_found").Inc()
		return utils.NotFoundError("Genre not found")
	}
	if !catalog.RequiresAuth(genre) {
		return nil
	}

	ctx := r.Context()
	if h.access == nil || !h.access.IsAuthenticated(ctx, middlewarePkg.TokenFromContext(ctx)) {
		logging.Debug().Str("genre", genre).Str("remote_ip", r.RemoteAddr).Msg("restricted genre requested without session")
		metrics.CatalogLookups.WithLabelValues(genre, "unauthorized").Inc()
		return utils.AuthError("Authentication required")
	}
	return nil
}

func (h *Handler) respondLookupErr(w http.ResponseWriter, genre string, err error) {
	switch {
	case errors.Is(err, catalog.ErrGenreNotFound):
		metrics.CatalogLookups.WithLabelValues("unknown", "not_found").Inc()
		utils.RespondErr(w, utils.NotFoundError("Genre not found"))
	case errors.Is(err, catalog.ErrSessionNotFound):
		metrics.CatalogLookups.WithLabelValues(genre, "not_found").Inc()
		utils.RespondErr(w, utils.NotFoundError("Session not found"))
	default:
		utils.RespondErr(w, err)
	}
}
