package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/elefund/elephant-raiser/internal/models"
)

// CreateRaisings persists one ownership row per elephant under the given
// checkout reference. Rows already written for the same reference (by the
// webhook or the success callback, whichever ran first) are skipped.
func (r *GormRepo) CreateRaisings(ctx context.Context, userID uint, elephantIDs []uint, checkoutRef string) (int64, error) {
	if len(elephantIDs) == 0 {
		return 0, nil
	}

	raisings := make([]models.Raising, 0, len(elephantIDs))
	for _, id := range elephantIDs {
		raisings = append(raisings, models.Raising{
			UserID:      userID,
			ElephantID:  id,
			CheckoutRef: checkoutRef,
		})
	}

	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&raisings)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *GormRepo) ListRaisingsByUser(ctx context.Context, userID uint) ([]models.Raising, error) {
	var raisings []models.Raising
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&raisings).Error; err != nil {
		return nil, err
	}
	return raisings, nil
}

// ListRaisedElephants resolves a user's raisings to the elephants themselves
// for the info page. An elephant raised through several checkouts appears
// once per raising.
func (r *GormRepo) ListRaisedElephants(ctx context.Context, userID uint) ([]models.Elephant, error) {
	var elephants []models.Elephant
	err := r.DB.WithContext(ctx).
		Model(&models.Elephant{}).
		Joins("JOIN raisings ON raisings.elephant_id = elephants.id").
		Where("raisings.user_id = ?", userID).
		Order("raisings.id ASC").
		Find(&elephants).Error
	if err != nil {
		return nil, err
	}
	return elephants, nil
}
