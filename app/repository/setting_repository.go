package repository

import (
	"github.com/comanda-app/comanda/app/models"
	"gorm.io/gorm"
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// GetValue retrieves a specific setting value by key
func (r *settingRepository) GetValue(storeID uint, key string) (string, error) {
	var setting models.Setting
	err := r.db.Where("store_id = ? AND setting_key = ?", storeID, key).First(&setting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil // Return empty string for non-existent settings
		}
		return "", err
	}
	return setting.Value, nil
}

// SetValue sets a specific setting value by key
func (r *settingRepository) SetValue(storeID uint, key, value string) error {
	var setting models.Setting
	err := r.db.Where("store_id = ? AND setting_key = ?", storeID, key).First(&setting).Error

	if err == gorm.ErrRecordNotFound {
		setting = models.Setting{
			StoreID: storeID,
			Key:     key,
			Value:   value,
		}
		return r.db.Create(&setting).Error
	} else if err != nil {
		return err
	}

	setting.Value = value
	return r.db.Save(&setting).Error
}

// GetAll retrieves all settings of a store
func (r *settingRepository) GetAll(storeID uint) ([]models.Setting, error) {
	var settings []models.Setting
	err := r.db.Where("store_id = ?", storeID).Order("setting_key ASC").Find(&settings).Error
	return settings, err
}
