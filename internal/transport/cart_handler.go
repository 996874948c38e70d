package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartHandler serves the cart endpoints, including checkout and the
// last-order shortcut.
type CartHandler struct {
	cartService  service.CartService
	orderService service.OrderService
	logger       *zap.Logger
}

// NewCartHandler creates a new instance of CartHandler
func NewCartHandler(cartService service.CartService, orderService service.OrderService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService:  cartService,
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes mounts the cart routes. Only /count tolerates anonymous
// callers; every other endpoint requires a session.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/count", h.Count)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth())

		r.Get("/", h.GetCart)
		r.Post("/add", h.Add)
		r.Put("/update", h.Update)
		r.Post("/modify", h.Modify)
		r.Delete("/clear", h.Clear)
		r.Delete("/{productID}", h.Remove)
		r.Post("/checkout", h.Checkout)
		r.Get("/last-order", h.LastOrder)
	})
}

type cartLineRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required"`
}

type cartModifyRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Delta     int       `json:"delta" validate:"required"`
}

type cartSummary struct {
	Items []*domain.CartItem `json:"items"`
	Count int                `json:"count"`
	Total decimal.Decimal    `json:"total"`
}

// GetCart returns the cart lines with product data, the line count and the
// live-price total.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	items, err := h.cartService.GetCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	total, err := h.cartService.Total(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cartSummary{
		Items: items,
		Count: len(items),
		Total: total,
	})
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req cartLineRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.cartService.AddToCart(r.Context(), userID, req.ProductID, req.Quantity); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, nil)
}

// Update sets the line quantity outright. Zero removes the line.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req cartLineRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.cartService.SetQuantity(r.Context(), userID, req.ProductID, req.Quantity); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, nil)
}

// Modify adjusts the line quantity by a signed delta.
func (h *CartHandler) Modify(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req cartModifyRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.cartService.AdjustQuantity(r.Context(), userID, req.ProductID, req.Delta); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, nil)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	productID, err := urlParamUUID(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.cartService.Remove(r.Context(), userID, productID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, nil)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	if err := h.cartService.Clear(r.Context(), userID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, nil)
}

// Count returns the number of distinct cart lines. Anonymous callers get 0
// so the storefront badge renders without a session.
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithJSON(w, http.StatusOK, 0)
		return
	}

	count, err := h.cartService.Count(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, count)
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	order, err := h.orderService.Checkout(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

func (h *CartHandler) LastOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	order, err := h.orderService.GetLastOrder(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}
