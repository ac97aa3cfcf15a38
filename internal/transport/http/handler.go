package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"walletd/internal/model"
	"walletd/internal/repository"
	"walletd/internal/service"
)

type Handler struct {
	svc service.WalletService
}

func NewHandler(svc service.WalletService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /balance/{user_id}", h.Balance)
	mux.HandleFunc("GET /transactions/{user_id}", h.Transactions)
	mux.HandleFunc("POST /transact", h.Transact)
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"service": "walletd",
		"status":  "ok",
		"health":  "/health",
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Transact is the mutation endpoint. Validation happens entirely here,
// before any database work: a missing Idempotency-Key header is a 400 (a
// different error class than payload validation), payload problems are 422,
// and the reserved treasury user is 400.
func (h *Handler) Transact(w http.ResponseWriter, r *http.Request) {
	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		h.respondError(w, http.StatusBadRequest, "missing Idempotency-Key header")
		return
	}

	var req model.TransactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	cmd, err := req.Normalize(idempotencyKey)
	if err != nil {
		if errors.Is(err, model.ErrReservedUser) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	payload, err := h.svc.Transact(r.Context(), cmd)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	// payload is the stored serialized body; write it through untouched so
	// replays are byte-identical to the first response.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	assetCode, err := model.NormalizeAssetCode(r.URL.Query().Get("asset_code"))
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := h.svc.Balance(r.Context(), userID, assetCode)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	assetCode, err := model.NormalizeAssetCode(r.URL.Query().Get("asset_code"))
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := h.svc.Transactions(r.Context(), userID, assetCode)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrAssetNotFound),
		errors.Is(err, repository.ErrWalletNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrInsufficientFunds):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrIdempotencyConflict):
		h.respondError(w, http.StatusConflict, err.Error())
	case repository.IsTransient(err):
		h.respondError(w, http.StatusServiceUnavailable, "temporary contention, retry with the same Idempotency-Key")
	default:
		slog.Error("request failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
