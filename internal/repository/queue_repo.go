package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"order-processing-backend/internal/models"
)

type QueueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Expose DB if needed
func (r *QueueRepository) DB() *gorm.DB {
	return r.db
}

// Insert adds a queue item, ignoring duplicates on dealership id. Returns
// whether a row was actually inserted.
func (r *QueueRepository) Insert(item *models.QueueItem) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dealership_id"}},
		DoNothing: true,
	}).Create(item)
	return result.RowsAffected > 0, result.Error
}

// List returns all pending items, oldest first.
func (r *QueueRepository) List() ([]models.QueueItem, error) {
	var items []models.QueueItem
	err := r.db.Order("created_at ASC").Find(&items).Error
	return items, err
}

// UpdateFields patches an existing item and reports the rows touched.
func (r *QueueRepository) UpdateFields(dealershipID string, fields map[string]any) (int64, error) {
	result := r.db.Model(&models.QueueItem{}).
		Where("dealership_id = ?", dealershipID).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *QueueRepository) Delete(dealershipID string) error {
	return r.db.Where("dealership_id = ?", dealershipID).Delete(&models.QueueItem{}).Error
}

// DeleteAll clears the persisted queue, used when a session drains it.
func (r *QueueRepository) DeleteAll() error {
	return r.db.Where("1 = 1").Delete(&models.QueueItem{}).Error
}
