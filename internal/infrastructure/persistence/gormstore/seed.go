package gormstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/djishijima/hellbuild-v3/internal/infrastructure/persistence/seed"
)

// Seed inserts the reference data. Existing rows are left untouched.
func Seed(ctx context.Context, db *gorm.DB) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ignore := tx.Clauses(clause.OnConflict{DoNothing: true})

		for _, u := range seed.Users(now) {
			row := userRowFrom(u)
			if err := ignore.Create(&row).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", u.ID, err)
			}
		}
		for _, c := range seed.ApplicationCodes(now) {
			row := codeRowFrom(c)
			if err := ignore.Create(&row).Error; err != nil {
				return fmt.Errorf("seed application code %s: %w", c.Code, err)
			}
		}
		for _, p := range seed.Recipients(now) {
			row := recipientRowFrom(p)
			if err := ignore.Create(&row).Error; err != nil {
				return fmt.Errorf("seed recipient %s: %w", p.ID, err)
			}
		}
		return nil
	})
}
