package public

import (
	"errors"
	"strconv"

	"github.com/bakehouse-api/internal/http/response"
	"github.com/bakehouse-api/internal/models"
	"github.com/bakehouse-api/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 购物车项请求
type CartItemRequest struct {
	Name     string       `json:"name" binding:"required"`
	Price    models.Money `json:"price" binding:"required"`
	Quantity int          `json:"quantity" binding:"required"`
	Image    string       `json:"image"`
}

// AddCartItemsRequest 批量加入购物车请求
type AddCartItemsRequest struct {
	Items []CartItemRequest `json:"items" binding:"required"`
}

// UpdateCartItemRequest 购物车项数量更新请求
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func cartResponse(cart *models.Cart) gin.H {
	if cart == nil {
		return gin.H{"items": []models.CartItem{}}
	}
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return gin.H{
		"id":    cart.ID,
		"items": items,
	}
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	visitorID, ok := getVisitorID(c)
	if !ok {
		return
	}

	cart, err := h.CartService.Get(visitorID)
	if err != nil {
		// 尚未建车的访客返回空购物车
		if errors.Is(err, service.ErrCartNotFound) {
			response.Success(c, cartResponse(nil))
			return
		}
		respondCartError(c, err)
		return
	}
	response.Success(c, cartResponse(cart))
}

// AddCartItems 加入购物车，按名称合并数量
func (h *Handler) AddCartItems(c *gin.Context) {
	visitorID, ok := getVisitorID(c)
	if !ok {
		return
	}
	var req AddCartItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	inputs := make([]service.AddCartItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		inputs = append(inputs, service.AddCartItemInput{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
			Image:    item.Image,
		})
	}
	cart, err := h.CartService.AddItems(visitorID, inputs)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cartResponse(cart))
}

// UpdateCartItem 设置购物车项数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	visitorID, ok := getVisitorID(c)
	if !ok {
		return
	}
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "error.cart_item_invalid", nil)
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	cart, err := h.CartService.UpdateItemQuantity(visitorID, uint(itemID), *req.Quantity)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cartResponse(cart))
}

// RemoveCartItem 删除购物车项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	visitorID, ok := getVisitorID(c)
	if !ok {
		return
	}
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "error.cart_item_invalid", nil)
		return
	}

	cart, err := h.CartService.RemoveItem(visitorID, uint(itemID))
	if err != nil {
		// 没有购物车时重复删除同样视为成功
		if errors.Is(err, service.ErrCartNotFound) {
			response.Success(c, cartResponse(nil))
			return
		}
		respondCartError(c, err)
		return
	}
	response.Success(c, cartResponse(cart))
}
