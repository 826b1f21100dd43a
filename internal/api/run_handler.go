package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/mq"
	"github.com/shaiso/ghreport/internal/repo"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// ListRuns возвращает runs, новые первыми.
// GET /api/v1/runs?status=...&day=YYYY-MM-DD&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		Unavailable(w, "run ledger is not configured")
		return
	}

	q := r.URL.Query()
	filter := repo.RunFilter{
		Status: domain.RunStatus(q.Get("status")),
		Day:    q.Get("day"),
		Limit:  defaultListLimit,
	}

	if filter.Day != "" {
		if _, err := time.Parse(domain.DayLayout, filter.Day); err != nil {
			BadRequest(w, "invalid day, expected YYYY-MM-DD")
			return
		}
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit"), defaultListLimit); err != nil || filter.Limit > maxListLimit {
		BadRequest(w, "invalid limit")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		BadRequest(w, "invalid offset")
		return
	}

	runs, err := h.runs.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}
	List(w, result, len(result))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		Unavailable(w, "run ledger is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}
	Success(w, RunFromDomain(*run))
}

// RequestRun ставит внеплановый run в очередь runs.requested.
// POST /api/v1/runs
func (h *Handler) RequestRun(w http.ResponseWriter, r *http.Request) {
	if h.requester == nil {
		Unavailable(w, "message broker is not configured")
		return
	}

	var req RequestRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}
	if req.ResetDatabase && !h.reset {
		h.logger.Warn("database reset refused", "remote_addr", r.RemoteAddr)
		Forbidden(w, "database reset is disabled for the api")
		return
	}
	if req.RequestedBy == "" {
		req.RequestedBy = r.RemoteAddr
	}

	payload := mq.RunRequestedPayload{
		ResetDatabase: req.ResetDatabase,
		RequestedBy:   req.RequestedBy,
	}
	if err := h.requester.PublishRunRequested(r.Context(), payload); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("run requested via api", "requested_by", req.RequestedBy, "reset_database", req.ResetDatabase)
	Accepted(w, payload)
}

// intParam разбирает неотрицательное целое; пустая строка — def.
func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}
