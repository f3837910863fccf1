package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mokcj0825/mall-order-api/internal/domain/money"
	"github.com/mokcj0825/mall-order-api/internal/domain/order"
	"github.com/mokcj0825/mall-order-api/internal/domain/product"
)

type orderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	SKUID     string `json:"skuId"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type createOrderRequest struct {
	UserID            string             `json:"userId" binding:"required"`
	Items             []orderItemRequest `json:"items"`
	ShippingAddressID string             `json:"shippingAddressId" binding:"required"`
	CouponCode        string             `json:"couponCode"`
	PaymentMethod     string             `json:"paymentMethod" binding:"required"`
	Remark            string             `json:"remark"`
}

type paymentInfoResponse struct {
	PaymentID  string    `json:"paymentId"`
	QRCodeURL  string    `json:"qrCodeUrl"`
	ExpireTime time.Time `json:"expireTime"`
}

type orderItemResponse struct {
	ProductID    string      `json:"productId"`
	SKUID        string      `json:"skuId,omitempty"`
	Quantity     int         `json:"quantity"`
	Price        money.Money `json:"price"`
	ProductName  string      `json:"productName"`
	ProductImage string      `json:"productImage,omitempty"`
}

type orderResponse struct {
	OrderID           string               `json:"orderId"`
	OrderNumber       string               `json:"orderNumber"`
	Status            string               `json:"status"`
	TotalAmount       money.Money          `json:"totalAmount"`
	DiscountAmount    money.Money          `json:"discountAmount"`
	ShippingFee       money.Money          `json:"shippingFee"`
	FinalAmount       money.Money          `json:"finalAmount"`
	Items             []orderItemResponse  `json:"items"`
	PaymentInfo       *paymentInfoResponse `json:"paymentInfo,omitempty"`
	EstimatedDelivery *time.Time           `json:"estimatedDelivery,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
}

// createOrder handles POST /order/create-with-payment.
func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
		return
	}

	lines := make([]product.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = product.Line{
			ProductID: item.ProductID,
			SKUID:     item.SKUID,
			Quantity:  item.Quantity,
		}
	}

	result, err := h.orders.PlaceOrder(c.Request.Context(), order.PlaceOrderRequest{
		UserID:            req.UserID,
		Items:             lines,
		ShippingAddressID: req.ShippingAddressID,
		CouponCode:        req.CouponCode,
		PaymentMethod:     req.PaymentMethod,
		Remark:            req.Remark,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := orderToResponse(result.Order)
	resp.PaymentInfo = &paymentInfoResponse{
		PaymentID:  result.Payment.PaymentID,
		QRCodeURL:  result.Payment.QRCodeURL,
		ExpireTime: result.Payment.ExpireTime,
	}
	resp.EstimatedDelivery = &result.EstimatedDelivery

	c.JSON(http.StatusCreated, resp)
}

// getOrder handles GET /order/:id.
func (h *Handler) getOrder(c *gin.Context) {
	o, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderToResponse(o))
}

func orderToResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemResponse{
			ProductID:    item.ProductID,
			SKUID:        item.SKUID,
			Quantity:     item.Quantity,
			Price:        item.Price,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
		}
	}
	return orderResponse{
		OrderID:        o.ID,
		OrderNumber:    o.Number,
		Status:         string(o.Status),
		TotalAmount:    o.Total,
		DiscountAmount: o.Discount,
		ShippingFee:    o.ShippingFee,
		FinalAmount:    o.Final,
		Items:          items,
		CreatedAt:      o.CreatedAt,
	}
}
