package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderHandler serves the order history and the repeat-order endpoint.
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new instance of OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireAuth())

	r.Get("/", h.List)
	r.Get("/{orderID}", h.Get)
	r.Post("/repeat", h.Repeat)
}

type repeatOrderRequest struct {
	OrderID    uuid.UUID         `json:"orderId" validate:"required"`
	Quantities map[uuid.UUID]int `json:"quantities,omitempty"`
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	orders, err := h.orderService.ListOrders(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	orderID, err := urlParamUUID(r, "orderID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID, userID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// Repeat rebuilds the cart from a past order, optionally overriding
// per-product quantities.
func (h *OrderHandler) Repeat(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req repeatOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.orderService.RepeatOrder(r.Context(), userID, req.OrderID, req.Quantities)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}
