package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quicknote/internal/apperr"
	"github.com/starford/quicknote/internal/history"
	"github.com/starford/quicknote/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (QueryRequest, bool) {
	var req QueryRequest
	ok := readJSON(w, r, &req)
	return req, ok
}

// Preview handles POST /api/preview.
//
//	@Summary		Describe what submitting a query would do
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		QueryRequest	true	"Launcher query"
//	@Success		200		{object}	Preview
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preview [post]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Preview(req.Query))
}

// SubmitNote handles POST /api/notes.
//
//	@Summary		Create a note or append to an existing one
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		QueryRequest	true	"Launcher query"
//	@Param			async	query		bool			false	"Run in the background"
//	@Success		200		{object}	Run
//	@Success		202		{object}	DispatchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) SubmitNote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query is required"))
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		id := h.svc.Dispatch(r.Context(), req.Query)
		writeJSON(w, http.StatusAccepted, DispatchResponse{ID: id})
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Submit(r.Context(), req.Query))
}

// History handles GET /api/history.
//
//	@Summary		List recent runs, newest first
//	@Tags			history
//	@Produce		json
//	@Param			limit	query		int		false	"Maximum runs"
//	@Success		200		{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.History(r.Context(), limit)
	if err != nil {
		slog.Error("list history failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Runs: runs})
}

// GetRun handles GET /api/history/{id}.
//
//	@Summary		Get one recorded run, e.g. after an async submission
//	@Tags			history
//	@Produce		json
//	@Param			id	path		string	true	"Run id"
//	@Success		200	{object}	history.Run
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/history/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.svc.Lookup(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get run failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, run)
}
