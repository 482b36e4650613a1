package public

import (
	"strconv"

	"github.com/bakehouse-api/internal/constants"
	"github.com/bakehouse-api/internal/http/response"
	"github.com/bakehouse-api/internal/models"
	"github.com/bakehouse-api/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutItemRequest 下单商品请求
type CheckoutItemRequest struct {
	Name     string       `json:"name" binding:"required"`
	Price    models.Money `json:"price" binding:"required"`
	Quantity int          `json:"quantity" binding:"required"`
	Image    string       `json:"image"`
}

// CheckoutCustomerRequest 下单客户信息请求
type CheckoutCustomerRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// CheckoutRequest 下单请求
type CheckoutRequest struct {
	Customer       CheckoutCustomerRequest      `json:"customer" binding:"required"`
	Items          []CheckoutItemRequest        `json:"items" binding:"required"`
	CaptchaPayload service.CaptchaVerifyPayload `json:"captcha_payload"`
}

// VerifyPaymentRequest 支付回调校验请求
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

// Checkout 创建待支付订单并返回网关支付单
func (h *Handler) Checkout(c *gin.Context) {
	visitorID, ok := getVisitorID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	if h.CaptchaService != nil {
		if captchaErr := h.CaptchaService.Verify(constants.CaptchaSceneCheckout, req.CaptchaPayload); captchaErr != nil {
			respondCheckoutError(c, captchaErr)
			return
		}
	}

	items := make([]service.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CheckoutItem{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
			Image:    item.Image,
		})
	}
	result, err := h.OrderService.Checkout(c.Request.Context(), service.CheckoutInput{
		VisitorID: visitorID,
		Customer: service.CustomerInfo{
			Name:       req.Customer.Name,
			Email:      req.Customer.Email,
			Phone:      req.Customer.Phone,
			Address:    req.Customer.Address,
			City:       req.Customer.City,
			State:      req.Customer.State,
			PostalCode: req.Customer.PostalCode,
			Country:    req.Customer.Country,
		},
		Items:    items,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, result)
}

// VerifyPayment 校验支付结果并结算订单
func (h *Handler) VerifyPayment(c *gin.Context) {
	if _, ok := getVisitorID(c); !ok {
		return
	}
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	order, err := h.PaymentService.VerifyPayment(c.Request.Context(), service.VerifyPaymentInput{
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		Signature:        req.RazorpaySignature,
	})
	if err != nil {
		respondPaymentVerifyError(c, err)
		return
	}
	response.Success(c, gin.H{
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus,
		"paid_at":        order.PaidAt,
	})
}

// ListMyOrders 获取访客订单列表
func (h *Handler) ListMyOrders(c *gin.Context) {
	visitorID, ok := getVisitorID(c)
	if !ok {
		return
	}
	orders, err := h.OrderService.ListByVisitor(visitorID)
	if err != nil {
		respondOrderQueryError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	response.Success(c, gin.H{"orders": orders})
}

// GetMyOrder 获取访客订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	visitorID, ok := getVisitorID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}
	order, err := h.OrderService.GetByIDForVisitor(uint(orderID), visitorID)
	if err != nil {
		respondOrderQueryError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrdersByEmail 按结算邮箱获取已支付订单列表
func (h *Handler) ListOrdersByEmail(c *gin.Context) {
	if _, ok := getVisitorID(c); !ok {
		return
	}
	email := c.Query("email")
	orders, err := h.OrderService.ListBySettledEmail(email)
	if err != nil {
		respondOrderQueryError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	response.Success(c, gin.H{"orders": orders})
}
