package service

import (
	"strings"
	"time"

	"github.com/bakehouse-api/internal/models"
	"github.com/bakehouse-api/internal/repository"

	"github.com/shopspring/decimal"
)

// AddCartItemInput 加入购物车输入
type AddCartItemInput struct {
	Name     string       `json:"name"`
	Price    models.Money `json:"price"`
	Quantity int          `json:"quantity"`
	Image    string       `json:"image"`
}

// CartService 购物车服务
type CartService struct {
	cartRepo repository.CartRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository) *CartService {
	return &CartService{cartRepo: cartRepo}
}

// Get 获取访客购物车
func (s *CartService) Get(visitorID string) (*models.Cart, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return nil, ErrCartNotFound
	}
	cart, err := s.cartRepo.GetByVisitor(visitorID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// AddItems 加入购物车，按名称合并数量
func (s *CartService) AddItems(visitorID string, inputs []AddCartItemInput) (*models.Cart, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" || len(inputs) == 0 {
		return nil, ErrInvalidCartItem
	}
	for _, input := range inputs {
		if strings.TrimSpace(input.Name) == "" || input.Quantity < 1 {
			return nil, ErrInvalidCartItem
		}
		if input.Price.Decimal.LessThan(decimal.Zero) {
			return nil, ErrInvalidCartItem
		}
	}

	cart, err := s.cartRepo.GetByVisitor(visitorID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if cart == nil {
		cart = &models.Cart{
			VisitorID: visitorID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.cartRepo.CreateCart(cart); err != nil {
			return nil, err
		}
	}

	for _, input := range inputs {
		name := strings.TrimSpace(input.Name)
		existing, err := s.cartRepo.FindItemByName(cart.ID, name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := s.cartRepo.UpdateItemQuantity(existing.ID, existing.Quantity+input.Quantity); err != nil {
				return nil, err
			}
			continue
		}
		item := &models.CartItem{
			CartID:    cart.ID,
			Name:      name,
			UnitPrice: input.Price,
			Quantity:  input.Quantity,
			ImageURL:  strings.TrimSpace(input.Image),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.cartRepo.CreateItem(item); err != nil {
			return nil, err
		}
	}

	return s.Get(visitorID)
}

// UpdateItemQuantity 设置购物车项数量，数量小于等于 0 时删除该项
func (s *CartService) UpdateItemQuantity(visitorID string, itemID uint, quantity int) (*models.Cart, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" || itemID == 0 {
		return nil, ErrInvalidCartItem
	}
	cart, err := s.cartRepo.GetByVisitor(visitorID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	item, err := s.cartRepo.GetItem(cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	if quantity <= 0 {
		if err := s.cartRepo.DeleteItem(item.ID); err != nil {
			return nil, err
		}
		return s.Get(visitorID)
	}
	if err := s.cartRepo.UpdateItemQuantity(item.ID, quantity); err != nil {
		return nil, err
	}
	return s.Get(visitorID)
}

// RemoveItem 删除购物车项，重复删除视为成功
func (s *CartService) RemoveItem(visitorID string, itemID uint) (*models.Cart, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" || itemID == 0 {
		return nil, ErrInvalidCartItem
	}
	cart, err := s.cartRepo.GetByVisitor(visitorID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	item, err := s.cartRepo.GetItem(cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if item != nil {
		if err := s.cartRepo.DeleteItem(item.ID); err != nil {
			return nil, err
		}
	}
	return s.Get(visitorID)
}
