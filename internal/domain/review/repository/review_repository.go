package repository

import (
	"backcheck_api/internal/domain/review/model"

	"gorm.io/gorm"
)

// RatingStats summarizes the public review feed.
type RatingStats struct {
	Count        int64         `json:"count"`
	Average      float64       `json:"average"`
	Distribution map[int]int64 `json:"distribution"`
}

type ReviewRepository interface {
	Create(review *model.Review) error
	GetByID(id string) (*model.Review, error)
	GetByOrderID(orderID string) (*model.Review, error)
	GetByOrderAndUser(orderID, userID string) (*model.Review, error)
	GetByUser(userID string) ([]model.Review, error)
	GetList(page, limit int) ([]model.Review, int64, error)
	Update(review *model.Review) error
	Delete(id string) (int64, error)
	Stats() (*RatingStats, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(review *model.Review) error {
	return r.db.Create(review).Error
}

func (r *reviewRepository) GetByID(id string) (*model.Review, error) {
	var review model.Review
	if err := r.db.First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) GetByOrderID(orderID string) (*model.Review, error) {
	var review model.Review
	if err := r.db.First(&review, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) GetByOrderAndUser(orderID, userID string) (*model.Review, error) {
	var review model.Review
	err := r.db.Where("order_id = ? AND user_id = ?", orderID, userID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) GetByUser(userID string) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) GetList(page, limit int) ([]model.Review, int64, error) {
	var reviews []model.Review
	var total int64

	if err := r.db.Model(&model.Review{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *reviewRepository) Update(review *model.Review) error {
	return r.db.Save(review).Error
}

func (r *reviewRepository) Delete(id string) (int64, error) {
	result := r.db.Delete(&model.Review{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *reviewRepository) Stats() (*RatingStats, error) {
	type row struct {
		Rating int
		Count  int64
	}
	var rows []row
	err := r.db.Model(&model.Review{}).
		Select("rating, count(*) as count").
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &RatingStats{Distribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var sum int64
	for _, r := range rows {
		stats.Distribution[r.Rating] = r.Count
		stats.Count += r.Count
		sum += int64(r.Rating) * r.Count
	}
	if stats.Count > 0 {
		stats.Average = float64(sum) / float64(stats.Count)
	}
	return stats, nil
}
