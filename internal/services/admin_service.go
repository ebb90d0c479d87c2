package services

import (
	"cantina/internal/models"
	"cantina/internal/repositories"

	"github.com/shopspring/decimal"
)

// AdminService assembles the admin dashboard.
type AdminService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
}

// NewAdminService creates a new AdminService.
func NewAdminService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, userRepo repositories.UserRepository) *AdminService {
	return &AdminService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// DashboardStats aggregates store-wide counts and revenue. Revenue counts
// delivered orders only. With no delivered orders the average order value
// is zero, not an error.
func (s *AdminService) DashboardStats() (*models.DashboardStats, error) {
	orderStats, err := s.orderRepo.Stats()
	if err != nil {
		return nil, err
	}
	productCount, err := s.productRepo.Count()
	if err != nil {
		return nil, err
	}
	userCount, err := s.userRepo.Count()
	if err != nil {
		return nil, err
	}

	average := decimal.Zero
	if orderStats.DeliveredOrders > 0 {
		average = orderStats.Revenue.Div(decimal.NewFromInt(orderStats.DeliveredOrders))
	}

	return &models.DashboardStats{
		TotalUsers:        userCount,
		TotalProducts:     productCount,
		TotalOrders:       orderStats.TotalOrders,
		PendingOrders:     orderStats.PendingOrders,
		DeliveredOrders:   orderStats.DeliveredOrders,
		Revenue:           orderStats.Revenue,
		AverageOrderValue: average,
	}, nil
}
