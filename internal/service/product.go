package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"product_catalog/internal/apperr"
	"product_catalog/internal/logging"
	"product_catalog/internal/models"
	"product_catalog/internal/mykafka"
	"product_catalog/internal/repository"
)

type ProductService struct {
	Repo     repository.ProductRepository
	Producer *mykafka.Producer
}

// ProductInput carries the caller-supplied fields of both surfaces.
// Price is the decimal value as submitted; PriceInvalid marks a form
// value that did not parse as a number (JSON rejects those at bind
// time); PriceRequired is set by the HTML surface, which demands a
// price on every submit.
type ProductInput struct {
	Name          string
	Description   string
	Price         *float64
	PriceInvalid  bool
	PriceRequired bool
}

func (in ProductInput) validate() *apperr.ValidationError {
	ve := apperr.NewValidationError()

	if strings.TrimSpace(in.Name) == "" {
		ve.Add("name", "The name field is required.")
	}

	switch {
	case in.PriceInvalid:
		ve.Add("price", "The price must be a number.")
	case in.Price == nil:
		if in.PriceRequired {
			ve.Add("price", "The price field is required.")
		}
	case *in.Price < 0:
		ve.Add("price", "The price must be at least 0.")
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

// MinorUnits converts a decimal price to stored minor currency units.
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	prod, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return prod, nil
}

func (s *ProductService) List(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.List(ctx, offset, limit)
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if ve := in.validate(); ve != nil {
		return nil, ve
	}

	prod := models.Product{
		Name:        in.Name,
		Description: in.Description,
	}
	if in.Price != nil {
		prod.Price = MinorUnits(*in.Price)
	}

	if err := s.Repo.Save(ctx, &prod); err != nil {
		return nil, err
	}

	s.publish(ctx, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return &prod, nil
}

func (s *ProductService) Update(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if ve := in.validate(); ve != nil {
		return nil, ve
	}

	prod, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	prod.Name = in.Name
	prod.Description = in.Description
	if in.Price != nil {
		prod.Price = MinorUnits(*in.Price)
	}

	if err := s.Repo.Save(ctx, prod); err != nil {
		return nil, err
	}

	s.publish(ctx, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return prod, nil
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}

	s.publish(ctx, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})

	return nil
}

// Events are fire-and-forget: a broker failure is logged, never
// surfaced to the caller.
func (s *ProductService) publish(ctx context.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(ctx, fmt.Sprint(event["productID"]), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
