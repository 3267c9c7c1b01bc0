package repository

import (
	"context"

	"gorm.io/gorm"

	"product_catalog/internal/models"
)

// ProductRepository is the explicit storage contract the service layer
// talks to. Save both creates and updates (id zero means create).
type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	List(ctx context.Context, offset, limit int) (int64, []models.Product, error)
	Save(ctx context.Context, prod *models.Product) error
	Delete(ctx context.Context, id uint) error
}

type GormProductRepo struct {
	DB *gorm.DB
}

func NewGormProductRepo(db *gorm.DB) *GormProductRepo {
	return &GormProductRepo{DB: db}
}

func (r *GormProductRepo) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormProductRepo) List(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (r *GormProductRepo) Save(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Save(prod).Error
}

func (r *GormProductRepo) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
