package repository

import (
	"backcheck_api/internal/domain/candidate/model"

	"gorm.io/gorm"
)

type CandidateRepository interface {
	Create(candidate *model.Candidate) error
	GetByID(id string) (*model.Candidate, error)
	GetByOrderID(orderID string) ([]model.Candidate, error)
	GetList(page, limit int) ([]model.Candidate, int64, error)
	Update(candidate *model.Candidate) error
	Delete(id string) (int64, error)
	DeleteByOrderID(orderID string) (int64, error)
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) Create(candidate *model.Candidate) error {
	return r.db.Create(candidate).Error
}

func (r *candidateRepository) GetByID(id string) (*model.Candidate, error) {
	var candidate model.Candidate
	if err := r.db.First(&candidate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &candidate, nil
}

func (r *candidateRepository) GetByOrderID(orderID string) ([]model.Candidate, error) {
	var candidates []model.Candidate
	err := r.db.Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *candidateRepository) GetList(page, limit int) ([]model.Candidate, int64, error) {
	var candidates []model.Candidate
	var total int64

	if err := r.db.Model(&model.Candidate{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, 0, err
	}
	return candidates, total, nil
}

func (r *candidateRepository) Update(candidate *model.Candidate) error {
	return r.db.Save(candidate).Error
}

func (r *candidateRepository) Delete(id string) (int64, error) {
	result := r.db.Delete(&model.Candidate{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *candidateRepository) DeleteByOrderID(orderID string) (int64, error) {
	result := r.db.Delete(&model.Candidate{}, "order_id = ?", orderID)
	return result.RowsAffected, result.Error
}
