package repository

import (
	"backcheck_api/internal/domain/payment/model"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(payment *model.Payment) error
	GetByID(id string) (*model.Payment, error)
	GetByOrderID(orderID string) (*model.Payment, error)
	GetList(page, limit int, status model.PaymentStatus) ([]model.Payment, int64, error)
	Update(payment *model.Payment) error
	Delete(id string) (int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(payment *model.Payment) error {
	return r.db.Create(payment).Error
}

func (r *paymentRepository) GetByID(id string) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetByOrderID(orderID string) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.First(&payment, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetList(page, limit int, status model.PaymentStatus) ([]model.Payment, int64, error) {
	query := r.db.Model(&model.Payment{})
	if status != "" {
		query = query.Where("payment_status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []model.Payment
	err := query.Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (r *paymentRepository) Update(payment *model.Payment) error {
	return r.db.Save(payment).Error
}

func (r *paymentRepository) Delete(id string) (int64, error) {
	result := r.db.Delete(&model.Payment{}, "id = ?", id)
	return result.RowsAffected, result.Error
}
