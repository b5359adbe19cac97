// Package rest exposes the trigger router over HTTP. The acting user is
// taken from the X-Actor-ID header set by the authenticating proxy.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/approval"
	"github.com/viant/retract/service/trigger"
	"github.com/viant/retract/tracing"
	"go.uber.org/zap"
)

// ActorHeader carries the authenticated actor id.
const ActorHeader = "X-Actor-ID"

const defaultListLimit = 50

// Reader exposes request queries.
type Reader interface {
	GetByCorrelationKey(ctx context.Context, key string) (*request.DeletionRequest, error)
	List(ctx context.Context, status request.Status, limit int) ([]*request.DeletionRequest, error)
}

// Handler serves the retraction API.
type Handler struct {
	router *trigger.Router
	reader Reader
	logger *zap.Logger
}

type submitBody struct {
	Target         request.Target `json:"target"`
	CorrelationKey string         `json:"correlationKey,omitempty"`
	ActorName      string         `json:"actorName,omitempty"`
	AuthorName     string         `json:"authorName,omitempty"`
	Preview        string         `json:"preview,omitempty"`
}

type decisionBody struct {
	Decision  request.Decision `json:"decision"`
	ActorName string           `json:"actorName,omitempty"`
}

type reactionBody struct {
	Location       string `json:"location"`
	CorrelationKey string `json:"correlationKey"`
	Reaction       string `json:"reaction"`
	ActorName      string `json:"actorName,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Routes returns the API mux.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.trace)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/requests", h.handleSubmit)
		r.Get("/requests", h.handleList)
		r.Get("/requests/{key}", h.handleGet)
		r.Post("/requests/{key}/decision", h.handleDecision)
		r.Post("/reactions", h.handleReaction)
	})
	return r
}

func (h *Handler) trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartSpan(r.Context(), r.Method+" "+r.URL.Path, tracing.KindServer)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		span.SetStatusFromHTTPCode(status)
		tracing.EndSpan(span, nil)
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	body := &submitBody{}
	if !h.decode(w, r, body) {
		return
	}
	created, err := h.router.Submit(r.Context(), &trigger.SubmissionEvent{
		ActorID:            actor,
		ActorName:          body.ActorName,
		Target:             body.Target,
		CorrelationKeyHint: body.CorrelationKey,
		AuthorName:         body.AuthorName,
		Preview:            body.Preview,
		Channel:            trigger.ChannelHTTP,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	body := &decisionBody{}
	if !h.decode(w, r, body) {
		return
	}
	outcome, err := h.router.Decide(r.Context(), &trigger.DecisionEvent{
		CorrelationKey: chi.URLParam(r, "key"),
		Decision:       body.Decision,
		ActorID:        actor,
		ActorName:      body.ActorName,
		Channel:        trigger.ChannelHTTP,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) handleReaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	body := &reactionBody{}
	if !h.decode(w, r, body) {
		return
	}
	outcome, err := h.router.React(r.Context(), &trigger.ReactionEvent{
		Location:       body.Location,
		CorrelationKey: body.CorrelationKey,
		Reaction:       body.Reaction,
		ActorID:        actor,
		ActorName:      body.ActorName,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if outcome == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	h.writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	found, err := h.reader.GetByCorrelationKey(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if found == nil {
		h.writeError(w, approval.ErrNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, found)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			h.writeError(w, fmt.Errorf("%w: invalid limit %q", approval.ErrInvalidInput, v))
			return
		}
		limit = parsed
	}
	status := request.Status(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		h.writeError(w, fmt.Errorf("%w: invalid status %q", approval.ErrInvalidInput, status))
		return
	}
	list, err := h.reader.List(r.Context(), status, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if list == nil {
		list = []*request.DeletionRequest{}
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := r.Header.Get(ActorHeader)
	if actor == "" {
		h.writeJSON(w, http.StatusUnauthorized, &errorBody{Error: "missing " + ActorHeader + " header"})
		return "", false
	}
	return actor, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(target); err != nil {
		h.writeJSON(w, http.StatusBadRequest, &errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, approval.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, approval.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, approval.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, approval.ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		h.logger.Error("request failed", zap.Error(err))
	}
	h.writeJSON(w, status, &errorBody{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		h.logger.Debug("failed to write response", zap.Error(err))
	}
}

// New creates a handler.
func New(router *trigger.Router, reader Reader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{router: router, reader: reader, logger: logger}
}
