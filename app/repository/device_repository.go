package repository

import (
	"github.com/comanda-app/comanda/app/models"
	"gorm.io/gorm"
)

// deviceRepository implements the DeviceRepository interface
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new device repository instance
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

// Create creates a new device
func (r *deviceRepository) Create(device *models.Device) error {
	return r.db.Create(device).Error
}

// GetByID retrieves a device by ID
func (r *deviceRepository) GetByID(id uint) (*models.Device, error) {
	var device models.Device
	err := r.db.First(&device, id).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// GetByIDForStore retrieves a device by ID scoped to the given store.
// Cross-tenant reads come back as record-not-found, not as a different error.
func (r *deviceRepository) GetByIDForStore(id, storeID uint) (*models.Device, error) {
	var device models.Device
	err := r.db.Where("id = ? AND store_id = ?", id, storeID).First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// GetByHash retrieves a device by its bridge-issued correlation key
func (r *deviceRepository) GetByHash(deviceHash string) (*models.Device, error) {
	var device models.Device
	err := r.db.Where("device_hash = ?", deviceHash).First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// GetByPhoneNumber retrieves a device by phone number (status webhook key)
func (r *deviceRepository) GetByPhoneNumber(phoneNumber string) (*models.Device, error) {
	var device models.Device
	err := r.db.Where("phone_number = ?", phoneNumber).First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// ListByStore retrieves all devices belonging to a store
func (r *deviceRepository) ListByStore(storeID uint) ([]models.Device, error) {
	var devices []models.Device
	err := r.db.Where("store_id = ?", storeID).Order("id DESC").Find(&devices).Error
	return devices, err
}

// Update updates a device
func (r *deviceRepository) Update(device *models.Device) error {
	return r.db.Save(device).Error
}

// SetMain marks one device as the store's main device. The main flag is
// cleared on all siblings inside the same transaction, so at most one device
// per store carries it at any time.
func (r *deviceRepository) SetMain(storeID, deviceID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var device models.Device
		if err := tx.Where("id = ? AND store_id = ?", deviceID, storeID).First(&device).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Device{}).
			Where("store_id = ? AND is_main = ?", storeID, true).
			Update("is_main", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Device{}).
			Where("id = ?", deviceID).
			Update("is_main", true).Error
	})
}

// Delete deletes a device
func (r *deviceRepository) Delete(id uint) error {
	return r.db.Delete(&models.Device{}, id).Error
}

// CountByStore returns the number of devices in a store
func (r *deviceRepository) CountByStore(storeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Device{}).Where("store_id = ?", storeID).Count(&count).Error
	return count, err
}
