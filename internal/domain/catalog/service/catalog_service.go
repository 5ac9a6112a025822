package service

import (
	"errors"

	"backcheck_api/internal/domain/catalog/model"
	"backcheck_api/internal/domain/catalog/repository"
	"backcheck_api/pkg/apperr"

	"gorm.io/gorm"
)

// CatalogService exposes the service catalog. The order and candidate
// modules use FindOne to snapshot titles and to verify result uploads point
// at a real product.
type CatalogService interface {
	Create(service *model.Service) (*model.Service, error)
	FindAll() ([]model.Service, error)
	FindOne(id string) (*model.Service, error)
	Update(id string, update *model.Service) (*model.Service, error)
	Remove(id string) error
}

type catalogService struct {
	repo repository.ServiceRepository
}

func NewCatalogService(repo repository.ServiceRepository) CatalogService {
	return &catalogService{repo: repo}
}

func (s *catalogService) Create(service *model.Service) (*model.Service, error) {
	if err := s.repo.Create(service); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *catalogService) FindAll() ([]model.Service, error) {
	return s.repo.GetAll()
}

func (s *catalogService) FindOne(id string) (*model.Service, error) {
	service, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Errorf(apperr.NotFound, "service with ID %s not found", id)
		}
		return nil, err
	}
	return service, nil
}

func (s *catalogService) Update(id string, update *model.Service) (*model.Service, error) {
	service, err := s.FindOne(id)
	if err != nil {
		return nil, err
	}

	if update.Title != "" {
		service.Title = update.Title
	}
	if update.Description != "" {
		service.Description = update.Description
	}
	if update.Price > 0 {
		service.Price = update.Price
	}
	if update.Image != "" {
		service.Image = update.Image
	}
	if update.RequiredDocuments != nil {
		service.RequiredDocuments = update.RequiredDocuments
	}

	if err := s.repo.Update(service); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *catalogService) Remove(id string) error {
	deleted, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apperr.Errorf(apperr.NotFound, "service with ID %s not found", id)
	}
	return nil
}
