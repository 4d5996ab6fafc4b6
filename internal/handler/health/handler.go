package health

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/audiosessions/backend/pkg/utils"
)

// Version is reported by the health endpoint and the CLI.
const Version = "2.0.0"

// Features advertised to the frontend.
type Features struct {
	RateLimiting bool `json:"rate_limiting"`
	CORS         bool `json:"cors"`
	Compression  bool `json:"compression"`
	Favorites    bool `json:"favorites"`
	Sharing      bool `json:"sharing"`
	PWA          bool `json:"pwa"`
}

// Response 健康检查响应
type Response struct {
	Status    string   `json:"status"`
	Timestamp string   `json:"timestamp"`
	Version   string   `json:"version"`
	Features  Features `json:"features"`
}

// Handler 健康检查处理器
type Handler struct {
	features Features
	now      func() time.Time
}

// New returns a health handler; rateLimiting reflects whether limits are enforced.
func New(rateLimiting bool) *Handler {
	return &Handler{
		features: Features{
			RateLimiting: rateLimiting,
			CORS:         true,
			Compression:  true,
			Favorites:    true,
			Sharing:      true,
			PWA:          true,
		},
		now: time.Now,
	}
}

// RegisterRoutes 注册健康检查路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

// handleHealth 健康检查端点
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, Response{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Version:   Version,
		Features:  h.features,
	})
}
