// Package handler exposes the order service as a REST API.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/mokcj0825/mall-order-api/internal/domain/coupon"
	"github.com/mokcj0825/mall-order-api/internal/domain/money"
	"github.com/mokcj0825/mall-order-api/internal/domain/order"
	"github.com/mokcj0825/mall-order-api/internal/domain/payment"
	"github.com/mokcj0825/mall-order-api/internal/domain/product"
	"github.com/mokcj0825/mall-order-api/internal/domain/user"
)

// OrderService is the slice of *order.Service the handlers need.
type OrderService interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.PlaceOrderResult, error)
	GetOrder(ctx context.Context, id string) (*order.Order, error)
}

// Handler delegates business logic to the order service.
type Handler struct {
	orders OrderService
	lg     *zap.Logger
}

// New constructs a Handler with the required domain dependencies.
func New(orders OrderService, lg *zap.Logger) *Handler {
	return &Handler{orders: orders, lg: lg}
}

// Routes registers the order endpoints on the given router group.
func (h *Handler) Routes(r *gin.RouterGroup) {
	r.POST("/order/create-with-payment", h.createOrder)
	r.GET("/order/:id", h.getOrder)
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// handleError maps a domain error to an HTTP status and a JSON error body.
func (h *Handler) handleError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.lg.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		// Do not leak internals.
		c.JSON(status, errorResponse{Code: status, Message: "internal error"})
		return
	}
	c.JSON(status, errorResponse{Code: status, Message: err.Error()})
}

func errorStatus(err error) int {
	var (
		iqErr *order.InvalidQuantityError
		amErr *order.AmountMismatchError
	)
	switch {
	case errors.Is(err, order.ErrNoItems),
		errors.Is(err, money.ErrNegativeAmount),
		errors.As(err, &iqErr):
		return http.StatusBadRequest
	case errors.Is(err, payment.ErrUnsupportedMethod):
		return http.StatusBadRequest
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrDisabled):
		return http.StatusForbidden
	case errors.Is(err, product.ErrOutOfStock):
		return http.StatusConflict
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, coupon.ErrExpired):
		return http.StatusUnprocessableEntity
	case errors.As(err, &amErr),
		errors.Is(err, order.ErrDiscountExceedsTotal):
		// Pricing and aggregate invariants are internal defects.
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
