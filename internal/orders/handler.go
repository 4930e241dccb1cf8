package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/orderflow-rest-demo/internal/telemetry"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the order endpoints on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(h.HandleList))
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(h.HandleCreate))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(h.HandleGet))
}

type createOrderRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type insufficientStockResponse struct {
	Error     string `json:"error"`
	Available int    `json:"available"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), req.ItemID, req.Quantity)
	if err != nil {
		var stockErr *InsufficientStockError
		switch {
		case errors.Is(err, ErrMissingFields):
			h.writeError(w, http.StatusBadRequest, "Missing itemId or quantity")
		case errors.Is(err, ErrInvalidQuantity):
			h.writeError(w, http.StatusBadRequest, "quantity must be a positive integer")
		case errors.As(err, &stockErr):
			h.logger.Info("order rejected", "item_id", req.ItemID, "quantity", req.Quantity, "available", stockErr.Available)
			h.writeJSON(w, http.StatusBadRequest, insufficientStockResponse{
				Error:     "Insufficient stock",
				Available: stockErr.Available,
			})
		case errors.Is(err, ErrItemNotFound):
			h.writeError(w, http.StatusNotFound, "Item not found")
		case errors.Is(err, ErrInventoryUnavailable):
			h.logger.Error("stock check failed", "error", err, "item_id", req.ItemID)
			h.writeError(w, http.StatusServiceUnavailable, "Service Unavailable")
		default:
			h.logger.Error("failed to place order", "error", err, "item_id", req.ItemID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.Info("order created", "order_id", order.ID, "item_id", order.ItemID, "quantity", order.Quantity)
	h.writeJSON(w, http.StatusCreated, map[string]string{"message": "Order Created"})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	order, err := h.service.GetOrder(r.Context(), id)
	if errors.Is(err, ErrOrderNotFound) {
		h.writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("order retrieved", "order_id", order.ID)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
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
