package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/bookarena/internal/app"
	"github.com/okian/bookarena/pkg/logger"
)

// PairDependencies defines the selector side of the engine.
type PairDependencies interface {
	Next(ctx context.Context) (service.Pair, error)
}

// PairHandler handles next-pair requests.
type PairHandler struct {
	deps   PairDependencies
	logger logger.Logger
}

// NewPairHandler creates a new pair handler.
func NewPairHandler(deps PairDependencies, l logger.Logger) *PairHandler {
	return &PairHandler{deps: deps, logger: l}
}

// HandleGetPair handles GET /pair requests.
func (h *PairHandler) HandleGetPair(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_pair"
	pair, err := h.deps.Next(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrDegeneratePopulation) {
			writeError(w, http.StatusConflict, "degenerate_population", WrapKind(op, ErrConflict, err))
			return
		}
		h.logger.Error(r.Context(), "pair selection failed", logger.String("request_id", RequestID(r.Context())), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, pair)
}
