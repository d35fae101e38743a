package repository

import (
	"github.com/comanda-app/comanda/app/models"
	"gorm.io/gorm"
)

// deviceEventRepository implements the DeviceEventRepository interface
type deviceEventRepository struct {
	db *gorm.DB
}

// NewDeviceEventRepository creates a new device event repository instance
func NewDeviceEventRepository(db *gorm.DB) DeviceEventRepository {
	return &deviceEventRepository{db: db}
}

// Append inserts an immutable event row. There is deliberately no Update or
// Delete on this repository.
func (r *deviceEventRepository) Append(event *models.DeviceEvent) error {
	return r.db.Create(event).Error
}

// ListByDevice returns events for a device newest-first, optionally filtered
// by event type, together with the unfiltered-page total. Log-insertion order
// may differ from true external chronology when the bridge delivers out of
// order; callers needing strict ordering must sort by the embedded timestamp.
func (r *deviceEventRepository) ListByDevice(deviceID uint, eventType string, limit, offset int) ([]models.DeviceEvent, int64, error) {
	q := r.db.Model(&models.DeviceEvent{}).Where("device_id = ?", deviceID)
	if eventType != "" {
		q = q.Where("event_type = ?", eventType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []models.DeviceEvent
	err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}
