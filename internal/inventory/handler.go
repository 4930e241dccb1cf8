package inventory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/orderflow-rest-demo/internal/telemetry"
)

type Handler struct {
	repo   *InventoryRepository
	logger *slog.Logger
}

func NewHandler(repo *InventoryRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// RegisterRoutes mounts the catalog endpoints on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /items", telemetry.WithHTTPRoute(h.HandleListItems))
	mux.HandleFunc("GET /items/{id}", telemetry.WithHTTPRoute(h.HandleGetItem))
	mux.HandleFunc("POST /items/{id}/restock", telemetry.WithHTTPRoute(h.HandleRestock))
}

func (h *Handler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list items", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("items listed", "count", len(items))
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")

	item, err := h.repo.GetItem(r.Context(), itemID)
	if errors.Is(err, ErrItemNotFound) {
		h.writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get item", "error", err, "item_id", itemID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("item retrieved", "item_id", itemID, "stock", item.Stock)
	h.writeJSON(w, http.StatusOK, item)
}

type restockRequest struct {
	Amount *int `json:"amount"`
}

type restockResponse struct {
	Message      string `json:"message"`
	CurrentStock int    `json:"currentStock"`
}

func (h *Handler) HandleRestock(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")

	if _, err := h.repo.GetItem(r.Context(), itemID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			h.writeError(w, http.StatusNotFound, "Item not found")
			return
		}
		h.logger.Error("failed to get item", "error", err, "item_id", itemID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			h.writeError(w, http.StatusBadRequest, "amount must be an integer")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount == nil {
		h.writeError(w, http.StatusBadRequest, "amount is required")
		return
	}

	stock, err := h.repo.Restock(r.Context(), itemID, *req.Amount)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			h.writeError(w, http.StatusNotFound, "Item not found")
			return
		}
		h.logger.Error("failed to restock item", "error", err, "item_id", itemID, "amount", *req.Amount)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("item restocked", "item_id", itemID, "amount", *req.Amount, "stock", stock)
	h.writeJSON(w, http.StatusOK, restockResponse{Message: "Stock updated", CurrentStock: stock})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
