package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"craftgate/internal/directory"
	"craftgate/internal/platform/middleware"
	dErrors "craftgate/pkg/domain-errors"
	"craftgate/pkg/platform/httputil"
)

type DirectoryService interface {
	ListJoined(ctx context.Context, playerID uuid.UUID, withRemotes bool) ([]directory.Server, error)
	Discover(ctx context.Context, playerID uuid.UUID) ([]directory.Server, error)
	Info(ctx context.Context, playerID uuid.UUID, serverID int64) (directory.Server, error)
	LatestForm(ctx context.Context, serverID int64) (directory.Form, error)
	SubmitApplication(ctx context.Context, playerID uuid.UUID, serverID int64, formID uuid.UUID, answers []directory.Answer) error
	JoinByInvitation(ctx context.Context, playerID uuid.UUID, code string) (directory.JoinResult, error)
	Leave(ctx context.Context, playerID uuid.UUID, serverID int64) error
	ReceivedApplications(ctx context.Context, operatorID uuid.UUID, serverID int64, page int) ([]directory.Application, error)
	ApplicationForm(ctx context.Context, operatorID uuid.UUID, serverID int64, formID uuid.UUID) (directory.Form, error)
	SubmitAccessApplication(ctx context.Context, playerID uuid.UUID, req directory.AccessRequest) (directory.AccessApplication, error)
	AccessApplications(ctx context.Context, playerID uuid.UUID, filter directory.AccessFilter) ([]directory.AccessApplication, error)
}

type DirectoryHandler struct {
	directory DirectoryService
}

func NewDirectoryHandler(directory DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

func (h *DirectoryHandler) Register(r chi.Router) {
	r.Get("/servers", h.handleList)
	r.Get("/servers/discover", h.handleDiscover)
	r.Post("/servers/join", h.handleJoin)
	r.Get("/servers/{id}", h.handleInfo)
	r.Delete("/servers/{id}/membership", h.handleLeave)
	r.Get("/servers/{id}/form", h.handleLatestForm)
	r.Get("/servers/{id}/forms/{formID}", h.handleApplicationForm)
	r.Post("/servers/{id}/applications", h.handleSubmitApplication)
	r.Get("/servers/{id}/applications", h.handleReceivedApplications)
	r.Post("/access-applications", h.handleSubmitAccessApplication)
	r.Get("/access-applications", h.handleAccessApplications)
}

func (h *DirectoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	withRemotes := r.URL.Query().Get("with_remotes") == "true"
	servers, err := h.directory.ListJoined(r.Context(), middleware.GetPlayerID(r.Context()), withRemotes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"servers": servers})
}

func (h *DirectoryHandler) handleDiscover(w http.ResponseWriter, r *http.Request) {
	servers, err := h.directory.Discover(r.Context(), middleware.GetPlayerID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"servers": servers})
}

func (h *DirectoryHandler) handleInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(w, r)
	if !ok {
		return
	}
	server, err := h.directory.Info(r.Context(), middleware.GetPlayerID(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, server)
}

type joinRequest struct {
	Code string `json:"code"`
}

func (h *DirectoryHandler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invitation code is required"))
		return
	}
	result, err := h.directory.JoinByInvitation(r.Context(), middleware.GetPlayerID(r.Context()), req.Code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (h *DirectoryHandler) handleLeave(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(w, r)
	if !ok {
		return
	}
	if err := h.directory.Leave(r.Context(), middleware.GetPlayerID(r.Context()), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DirectoryHandler) handleLatestForm(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(w, r)
	if !ok {
		return
	}
	form, err := h.directory.LatestForm(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, form)
}

func (h *DirectoryHandler) handleApplicationForm(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(w, r)
	if !ok {
		return
	}
	formID, err := uuid.Parse(chi.URLParam(r, "formID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form id"))
		return
	}
	form, err := h.directory.ApplicationForm(r.Context(), middleware.GetPlayerID(r.Context()), id, formID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, form)
}

type submitApplicationRequest struct {
	FormID  uuid.UUID          `json:"form_id"`
	Answers []directory.Answer `json:"answers"`
}

func (h *DirectoryHandler) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(w, r)
	if !ok {
		return
	}
	var req submitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	err := h.directory.SubmitApplication(r.Context(), middleware.GetPlayerID(r.Context()), id, req.FormID, req.Answers)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DirectoryHandler) handleReceivedApplications(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(w, r)
	if !ok {
		return
	}
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid page"))
			return
		}
		page = parsed
	}
	apps, err := h.directory.ReceivedApplications(r.Context(), middleware.GetPlayerID(r.Context()), id, page)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"applications": apps})
}

func (h *DirectoryHandler) handleSubmitAccessApplication(w http.ResponseWriter, r *http.Request) {
	var req directory.AccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validateAccessRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.directory.SubmitAccessApplication(r.Context(), middleware.GetPlayerID(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, app)
}

func (h *DirectoryHandler) handleAccessApplications(w http.ResponseWriter, r *http.Request) {
	filter := directory.AccessFilter(r.URL.Query().Get("filter"))
	apps, err := h.directory.AccessApplications(r.Context(), middleware.GetPlayerID(r.Context()), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"applications": apps})
}

func serverID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid server id"))
		return 0, false
	}
	return id, true
}

func validateAccessRequest(req directory.AccessRequest) error {
	if !govalidator.StringLength(req.Basic.Name, "3", "30") {
		return dErrors.New(dErrors.CodeBadRequest, "server name must be 3-30 characters")
	}
	if req.Basic.LogoLink != "" && !govalidator.IsURL(req.Basic.LogoLink) {
		return dErrors.New(dErrors.CodeBadRequest, "logo link must be a URL")
	}
	if req.Basic.CoverLink != "" && !govalidator.IsURL(req.Basic.CoverLink) {
		return dErrors.New(dErrors.CodeBadRequest, "cover link must be a URL")
	}
	if !govalidator.StringLength(req.Basic.Introduction, "10", "3000") {
		return dErrors.New(dErrors.CodeBadRequest, "introduction must be 10-3000 characters")
	}
	for _, remote := range []*directory.AccessRemote{req.Remote.Java, req.Remote.Bedrock} {
		if remote == nil {
			continue
		}
		if remote.Address == "" || remote.Port < 1 || remote.Port > 65535 {
			return dErrors.New(dErrors.CodeBadRequest, "remote address and port are required")
		}
	}
	return nil
}
