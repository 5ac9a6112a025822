package repository

import (
	"backcheck_api/internal/domain/catalog/model"

	"gorm.io/gorm"
)

type ServiceRepository interface {
	Create(service *model.Service) error
	GetByID(id string) (*model.Service, error)
	GetAll() ([]model.Service, error)
	Update(service *model.Service) error
	Delete(id string) (int64, error)
}

type serviceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) Create(service *model.Service) error {
	return r.db.Create(service).Error
}

func (r *serviceRepository) GetByID(id string) (*model.Service, error) {
	var service model.Service
	if err := r.db.First(&service, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *serviceRepository) GetAll() ([]model.Service, error) {
	var services []model.Service
	if err := r.db.Order("created_at asc").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *serviceRepository) Update(service *model.Service) error {
	return r.db.Save(service).Error
}

func (r *serviceRepository) Delete(id string) (int64, error) {
	result := r.db.Delete(&model.Service{}, "id = ?", id)
	return result.RowsAffected, result.Error
}
