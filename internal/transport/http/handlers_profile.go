package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"craftgate/internal/platform/middleware"
	"craftgate/internal/profile"
	"craftgate/internal/xbl"
	dErrors "craftgate/pkg/domain-errors"
	"craftgate/pkg/platform/httputil"
)

type ProfileService interface {
	Bind(ctx context.Context, playerID uuid.UUID, provider profile.Provider, alivePeriod time.Duration) (<-chan xbl.Event, error)
	List(ctx context.Context, playerID uuid.UUID) ([]profile.Profile, error)
	Unlink(ctx context.Context, playerID uuid.UUID, provider profile.Provider) error
}

type ProfileHandler struct {
	profiles ProfileService
	// alivePeriod is the configured polling budget used when the client
	// does not ask for one. Zero leaves the choice to the bind session.
	alivePeriod time.Duration
}

func NewProfileHandler(profiles ProfileService, alivePeriod time.Duration) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, alivePeriod: alivePeriod}
}

func (h *ProfileHandler) Register(r chi.Router) {
	r.Get("/profiles", h.handleList)
	r.Delete("/profiles/{provider}", h.handleUnlink)
	r.Get("/profiles/bind/java-microsoft", h.handleBindJavaMicrosoft)
}

func (h *ProfileHandler) handleList(w http.ResponseWriter, r *http.Request) {
	linked, err := h.profiles.List(r.Context(), middleware.GetPlayerID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"profiles": linked})
}

func (h *ProfileHandler) handleUnlink(w http.ResponseWriter, r *http.Request) {
	provider := profile.Provider(chi.URLParam(r, "provider"))
	err := h.profiles.Unlink(r.Context(), middleware.GetPlayerID(r.Context()), provider)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBindJavaMicrosoft streams bind progress as server-sent events.
// The stream carries at most one DeviceCode event and one terminal
// event; when the client disconnects the bind session is cancelled and
// the stream just ends.
func (h *ProfileHandler) handleBindJavaMicrosoft(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	alivePeriod, err := parseAlivePeriod(r.URL.Query().Get("alive_period"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if alivePeriod == 0 {
		alivePeriod = h.alivePeriod
	}

	events, err := h.profiles.Bind(r.Context(), middleware.GetPlayerID(r.Context()),
		profile.ProviderJavaMicrosoft, alivePeriod)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}

// parseAlivePeriod reads the optional polling budget in seconds; zero
// means the server default.
func parseAlivePeriod(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "alive_period must be a non-negative number of seconds")
	}
	return time.Duration(seconds) * time.Second, nil
}
