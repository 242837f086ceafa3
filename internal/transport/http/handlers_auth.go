package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"craftgate/internal/auth"
	dErrors "craftgate/pkg/domain-errors"
	"craftgate/pkg/platform/httputil"
)

type AuthService interface {
	Register(ctx context.Context, username, chatID, password string) (auth.Player, error)
	Login(ctx context.Context, login, password, remoteAddr, userAgent string) (string, auth.Player, error)
}

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

type registerRequest struct {
	Username string `json:"username"`
	ChatID   string `json:"chat_id"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type playerResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	ChatID      string    `json:"chat_id"`
	IsSiteAdmin bool      `json:"is_site_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPlayerResponse(p auth.Player) playerResponse {
	return playerResponse{
		ID:          p.ID,
		Username:    p.Username,
		ChatID:      p.ChatID,
		IsSiteAdmin: p.IsSiteAdmin,
		CreatedAt:   p.CreatedAt,
	}
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validateRegisterRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	player, err := h.auth.Register(r.Context(), req.Username, req.ChatID, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toPlayerResponse(player))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Login == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "login and password are required"))
		return
	}

	token, player, err := h.auth.Login(r.Context(), req.Login, req.Password, r.RemoteAddr, r.UserAgent())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"token":  token,
		"player": toPlayerResponse(player),
	})
}

func validateRegisterRequest(req registerRequest) error {
	if !govalidator.StringLength(req.Username, "3", "30") || !govalidator.IsAlphanumeric(req.Username) {
		return dErrors.New(dErrors.CodeBadRequest, "username must be 3-30 alphanumeric characters")
	}
	if !govalidator.IsNumeric(req.ChatID) || !govalidator.StringLength(req.ChatID, "5", "10") {
		return dErrors.New(dErrors.CodeBadRequest, "chat id must be 5-10 digits")
	}
	// bcrypt rejects inputs over 72 bytes
	if !govalidator.StringLength(req.Password, "8", "72") {
		return dErrors.New(dErrors.CodeBadRequest, "password must be 8-72 characters")
	}
	return nil
}
