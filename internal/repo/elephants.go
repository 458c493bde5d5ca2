package repo

import (
	"context"

	"github.com/elefund/elephant-raiser/internal/models"
	"github.com/elefund/elephant-raiser/internal/transport"
)

func (r *GormRepo) ListElephants(ctx context.Context) ([]models.Elephant, error) {
	var elephants []models.Elephant
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&elephants).Error; err != nil {
		return nil, err
	}
	return elephants, nil
}

func (r *GormRepo) GetElephant(ctx context.Context, id uint) (*models.Elephant, error) {
	var elephant models.Elephant
	if err := r.DB.WithContext(ctx).First(&elephant, id).Error; err != nil {
		return nil, err
	}
	return &elephant, nil
}

func (r *GormRepo) CreateElephant(ctx context.Context, e *models.Elephant) error {
	if err := r.DB.WithContext(ctx).Create(e).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (r *GormRepo) PatchElephant(ctx context.Context, req transport.PatchElephantRequest, id uint) (*models.Elephant, error) {
	var elephant models.Elephant
	if err := r.DB.WithContext(ctx).First(&elephant, id).Error; err != nil {
		return nil, err
	}

	if req.Name != nil {
		elephant.Name = *req.Name
	}
	if req.Affiliation != nil {
		elephant.Affiliation = *req.Affiliation
	}
	if req.Species != nil {
		elephant.Species = *req.Species
	}
	if req.Sex != nil {
		elephant.Sex = *req.Sex
	}
	if req.WikiLink != nil {
		elephant.WikiLink = *req.WikiLink
	}
	if req.Image != nil {
		elephant.Image = *req.Image
	}
	if req.Note != nil {
		elephant.Note = *req.Note
	}
	if req.Price != nil {
		elephant.Price = *req.Price
	}

	if err := r.DB.WithContext(ctx).Save(&elephant).Error; err != nil {
		return nil, err
	}
	return &elephant, nil
}

func (r *GormRepo) DeleteElephant(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Elephant{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
