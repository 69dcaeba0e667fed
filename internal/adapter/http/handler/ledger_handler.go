package handler

import (
	"context"
	"net/http"

	"github.com/gavelmarket/gavel/internal/adapter/http/dto"
)

// ConsistencyService defines the global consistency check needed by
// LedgerHandler.
type ConsistencyService interface {
	CheckLedgerConsistency(ctx context.Context) error
}

// LedgerHandler exposes the ledger-wide consistency check.
type LedgerHandler struct {
	reconcileUC ConsistencyService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(reconcileUC ConsistencyService) *LedgerHandler {
	return &LedgerHandler{reconcileUC: reconcileUC}
}

// Consistency verifies that wallet snapshots sum to the signed sum of
// all ledger entries. A mismatch is reported, never repaired.
func (h *LedgerHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	if err := h.reconcileUC.CheckLedgerConsistency(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ConsistencyResponse{
			Consistent: false,
			Detail:     err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyResponse{Consistent: true})
}
