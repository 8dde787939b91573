package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/bookarena/internal/app"
	"github.com/okian/bookarena/internal/domain/dedupe"
	"github.com/okian/bookarena/pkg/logger"
	"github.com/okian/bookarena/pkg/metrics"
)

// IdempotencyHeader names the optional request header for safe retries.
const IdempotencyHeader = "Idempotency-Key"

// ReplayedHeader is set on responses served from a stored key.
const ReplayedHeader = "Idempotent-Replayed"

const maxBodyBytes = 1 << 16

// ComparisonDependencies defines the resolution side of the engine.
type ComparisonDependencies interface {
	Resolve(ctx context.Context, winnerID, loserID int64) (service.Outcome, error)
}

// comparisonRequest is the body of POST /comparisons.
type comparisonRequest struct {
	WinnerID int64 `json:"winner_id"`
	LoserID  int64 `json:"loser_id"`
}

func (c comparisonRequest) validate() error {
	switch {
	case c.WinnerID < 1:
		return errors.New("missing winner_id")
	case c.LoserID < 1:
		return errors.New("missing loser_id")
	case c.WinnerID == c.LoserID:
		return errors.New("winner_id and loser_id must differ")
	}
	return nil
}

// ComparisonsHandler handles resolve requests.
type ComparisonsHandler struct {
	deps    ComparisonDependencies
	deduper dedupe.Deduper
	logger  logger.Logger
}

// NewComparisonsHandler creates a new comparisons handler.
func NewComparisonsHandler(deps ComparisonDependencies, d dedupe.Deduper, l logger.Logger) *ComparisonsHandler {
	return &ComparisonsHandler{deps: deps, deduper: d, logger: l}
}

// HandlePostComparison handles POST /comparisons requests. A request that
// carries an Idempotency-Key is applied at most once; retries get the
// original response.
func (h *ComparisonsHandler) HandlePostComparison(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_comparison"
	var req comparisonRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key != "" {
		prior, seen := h.deduper.SeenAndRecord(r.Context(), key)
		if seen {
			if prior == nil {
				writeError(w, http.StatusConflict, "in_progress", NewKind(op, ErrInProgress))
				return
			}
			metrics.RecordIdempotentReplay()
			w.Header().Set(ReplayedHeader, "true")
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(prior)
			return
		}
	}

	out, err := h.deps.Resolve(r.Context(), req.WinnerID, req.LoserID)
	if err != nil {
		if key != "" {
			// Release the claim so the client can retry.
			h.deduper.Unrecord(r.Context(), key)
		}
		h.writeResolveError(w, r, op, err)
		return
	}

	var body bytes.Buffer
	_ = json.NewEncoder(&body).Encode(out)
	if key != "" {
		h.deduper.Complete(r.Context(), key, body.Bytes())
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body.Bytes())
}

func (h *ComparisonsHandler) writeResolveError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownItem):
		writeError(w, http.StatusNotFound, "unknown_item", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrSameItem):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrDegeneratePopulation):
		writeError(w, http.StatusConflict, "degenerate_population", WrapKind(op, ErrConflict, err))
	default:
		h.logger.Error(r.Context(), "resolve failed", logger.String("request_id", RequestID(r.Context())), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "persistence_failure", Wrap(op, err))
	}
}
