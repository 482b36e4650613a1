package service

import (
	"strings"

	"github.com/bakehouse-api/internal/models"
	"github.com/bakehouse-api/internal/repository"
)

// GetByIDForVisitor 获取访客订单详情
func (s *OrderService) GetByIDForVisitor(id uint, visitorID string) (*models.Order, error) {
	visitorID = strings.TrimSpace(visitorID)
	if id == 0 || visitorID == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByIDAndVisitor(id, visitorID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListByVisitor 获取访客订单列表（新单在前）
func (s *OrderService) ListByVisitor(visitorID string) ([]models.Order, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return nil, ErrOrderFetchFailed
	}
	orders, err := s.orderRepo.ListByVisitor(visitorID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	return orders, nil
}

// ListBySettledEmail 按结算邮箱获取订单列表（匹配小写邮箱，新单在前）
func (s *OrderService) ListBySettledEmail(email string) ([]models.Order, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidEmail
	}
	orders, err := s.orderRepo.ListBySettledEmail(email)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	return orders, nil
}

// ListAdmin 管理端订单列表
func (s *OrderService) ListAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.SettledEmail != "" {
		filter.SettledEmail = strings.ToLower(strings.TrimSpace(filter.SettledEmail))
	}
	orders, total, err := s.orderRepo.ListAdmin(filter)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	return orders, total, nil
}

// GetByID 获取订单详情（管理端）
func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
