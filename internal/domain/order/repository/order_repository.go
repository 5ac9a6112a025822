package repository

import (
	"backcheck_api/internal/domain/order/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(order *model.Order) error
	GetByID(id string) (*model.Order, error)
	GetByTrackingNumber(trackingNumber string) (*model.Order, error)
	GetByUser(userID string) ([]model.Order, error)
	GetList(page, limit int, status model.OrderStatus) ([]model.Order, int64, error)
	Update(order *model.Order) error
	Delete(id string) (int64, error)
	FindReviewable(userID string) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *model.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) GetByID(id string) (*model.Order, error) {
	var order model.Order
	if err := r.db.First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByTrackingNumber(trackingNumber string) (*model.Order, error) {
	var order model.Order
	if err := r.db.First(&order, "tracking_number = ?", trackingNumber).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByUser(userID string) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) GetList(page, limit int, status model.OrderStatus) ([]model.Order, int64, error) {
	query := r.db.Model(&model.Order{})
	if status != "" {
		query = query.Where("order_status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []model.Order
	err := query.Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) Update(order *model.Order) error {
	return r.db.Save(order).Error
}

func (r *orderRepository) Delete(id string) (int64, error) {
	result := r.db.Delete(&model.Order{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *orderRepository) FindReviewable(userID string) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Where("user_id = ? AND order_status = ? AND is_reviewed = ?",
		userID, model.StatusCompleted, false).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
