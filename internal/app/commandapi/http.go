package commandapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/projection"
	"github.com/todo-1m/tasklist/internal/sharding"
)

// ViewReader serves the projections.
type ViewReader interface {
	MyList(ctx context.Context) (projection.MyListView, error)
	Drafts(ctx context.Context) (projection.DraftListView, error)
	Labelled(ctx context.Context, id label.ID) (projection.LabelledTasksView, error)
}

type LabelReader interface {
	Labels(ctx context.Context, ids ...label.ID) (projection.LabelSet, error)
}

type Handler struct {
	Service       *Service
	Views         ViewReader
	Labels        LabelReader
	AllowedOrigin string
}

func NewHandler(service *Service, views ViewReader, labels LabelReader, allowedOrigin string) *Handler {
	return &Handler{
		Service:       service,
		Views:         views,
		Labels:        labels,
		AllowedOrigin: allowedOrigin,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(newCORS(h.AllowedOrigin).middleware)
	r.Options("/*", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/api/v1/commands", h.handleCommand)
	r.Get("/api/v1/tasks", h.handleMyList)
	r.Get("/api/v1/drafts", h.handleDrafts)
	r.Get("/api/v1/labels/{labelID}", h.handleLabel)
	r.Get("/api/v1/labels/{labelID}/tasks", h.handleLabelledTasks)

	return r
}

func (h *Handler) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	resp, err := h.Service.Accept(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrCommandTypeRequired),
			errors.Is(err, ErrUnsupportedCommand),
			errors.Is(err, ErrAggregateIDRequired),
			errors.Is(err, ErrInvalidAggregateID),
			errors.Is(err, ErrInvalidPayload):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.WithError(err).WithField("type", req.Type).Error("command publish failed")
			h.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) handleMyList(w http.ResponseWriter, r *http.Request) {
	view, err := h.Views.MyList(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleDrafts(w http.ResponseWriter, r *http.Request) {
	view, err := h.Views.Drafts(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleLabelledTasks(w http.ResponseWriter, r *http.Request) {
	labelID, ok := h.labelParam(w, r)
	if !ok {
		return
	}
	view, err := h.Views.Labelled(r.Context(), labelID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

type labelResponse struct {
	LabelID label.ID    `json:"label_id"`
	Title   string      `json:"title"`
	Color   label.Color `json:"color"`
}

func (h *Handler) handleLabel(w http.ResponseWriter, r *http.Request) {
	labelID, ok := h.labelParam(w, r)
	if !ok {
		return
	}
	if h.Labels == nil {
		h.writeError(w, http.StatusInternalServerError, "label reader is not configured")
		return
	}
	labels, err := h.Labels.Labels(r.Context(), labelID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	details, found := labels[labelID]
	if !found {
		h.writeError(w, http.StatusNotFound, "label not found")
		return
	}
	h.writeJSON(w, http.StatusOK, labelResponse{LabelID: labelID, Title: details.Title, Color: details.Color})
}

func (h *Handler) labelParam(w http.ResponseWriter, r *http.Request) (label.ID, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "labelID"))
	if !sharding.ValidToken(id) {
		h.writeError(w, http.StatusBadRequest, "invalid label id")
		return "", false
	}
	return label.ID(id), true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
