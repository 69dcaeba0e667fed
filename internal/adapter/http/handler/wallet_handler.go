package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gavelmarket/gavel/internal/adapter/http/dto"
	"github.com/gavelmarket/gavel/internal/domain"
	"github.com/gavelmarket/gavel/internal/usecase"
)

// WalletService defines the behavior needed by WalletHandler.
type WalletService interface {
	GetWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	Deposit(ctx context.Context, userID string, amount decimal.Decimal, referenceID string) (*domain.Wallet, error)
	Withdraw(ctx context.Context, userID string, amount decimal.Decimal, referenceID string) (*domain.Wallet, error)
	HoldFunds(ctx context.Context, userID string, amount decimal.Decimal, referenceID, note string) (*domain.Wallet, error)
	ReleaseFunds(ctx context.Context, userID string, amount decimal.Decimal, referenceID, note string) (*domain.Wallet, error)
	CaptureFunds(ctx context.Context, userID string, amount decimal.Decimal, referenceID, note string) (*domain.Wallet, error)
	DeactivateWallet(ctx context.Context, userID string) error
	ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.LedgerEntry, error)
}

// ReconciliationService defines the reconciliation behavior needed by
// WalletHandler.
type ReconciliationService interface {
	ReconcileWallet(ctx context.Context, userID string) (*usecase.ReconciliationResult, error)
}

// WalletHandler handles wallet-related HTTP requests.
type WalletHandler struct {
	walletUC    WalletService
	reconcileUC ReconciliationService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletUC WalletService, reconcileUC ReconciliationService) *WalletHandler {
	return &WalletHandler{walletUC: walletUC, reconcileUC: reconcileUC}
}

// Get retrieves the user's wallet, creating it on first access.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	wallet, err := h.walletUC.GetWallet(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, "failed to get wallet")
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// Deposit credits the wallet.
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, userID string, req dto.FundsRequest) (*domain.Wallet, error) {
		return h.walletUC.Deposit(ctx, userID, req.Amount, req.ReferenceID)
	})
}

// Withdraw debits the wallet's spendable balance.
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, userID string, req dto.FundsRequest) (*domain.Wallet, error) {
		return h.walletUC.Withdraw(ctx, userID, req.Amount, req.ReferenceID)
	})
}

// Hold reserves funds against a reference.
func (h *WalletHandler) Hold(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, userID string, req dto.FundsRequest) (*domain.Wallet, error) {
		return h.walletUC.HoldFunds(ctx, userID, req.Amount, req.ReferenceID, req.Note)
	})
}

// Release reverses a hold.
func (h *WalletHandler) Release(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, userID string, req dto.FundsRequest) (*domain.Wallet, error) {
		return h.walletUC.ReleaseFunds(ctx, userID, req.Amount, req.ReferenceID, req.Note)
	})
}

// Capture converts a hold into a permanent debit.
func (h *WalletHandler) Capture(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, userID string, req dto.FundsRequest) (*domain.Wallet, error) {
		return h.walletUC.CaptureFunds(ctx, userID, req.Amount, req.ReferenceID, req.Note)
	})
}

// Deactivate soft-deactivates the user's wallet.
func (h *WalletHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	if err := h.walletUC.DeactivateWallet(r.Context(), userID); err != nil {
		writeDomainError(w, err, "failed to deactivate wallet")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListEntries lists the wallet's ledger entries.
func (h *WalletHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	entries, err := h.walletUC.ListEntries(r.Context(), usecase.ListEntriesInput{
		UserID: userID,
		Limit:  parseIntQuery(r, "limit", 50),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err, "failed to list entries")
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.LedgerEntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}

// Reconcile replays the wallet's ledger and reports whether it matches
// the stored snapshot.
func (h *WalletHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	result, err := h.reconcileUC.ReconcileWallet(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, "failed to reconcile wallet")
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromResult(result))
}

func (h *WalletHandler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, userID string, req dto.FundsRequest) (*domain.Wallet, error),
) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	var req dto.FundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	wallet, err := op(r.Context(), userID, req)
	if err != nil {
		writeDomainError(w, err, "wallet operation failed")
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}
