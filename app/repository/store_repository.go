package repository

import (
	"github.com/comanda-app/comanda/app/models"
	"gorm.io/gorm"
)

// storeRepository implements the StoreRepository interface
type storeRepository struct {
	db *gorm.DB
}

// NewStoreRepository creates a new store repository instance
func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

// Create creates a new store
func (r *storeRepository) Create(store *models.Store) error {
	return r.db.Create(store).Error
}

// GetByID retrieves a store by ID
func (r *storeRepository) GetByID(id uint) (*models.Store, error) {
	var store models.Store
	err := r.db.First(&store, id).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// GetBySlug retrieves a store by slug
func (r *storeRepository) GetBySlug(slug string) (*models.Store, error) {
	var store models.Store
	err := r.db.Where("slug = ?", slug).First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// GetAll retrieves all stores
func (r *storeRepository) GetAll() ([]models.Store, error) {
	var stores []models.Store
	err := r.db.Order("name ASC").Find(&stores).Error
	return stores, err
}

// Update updates a store
func (r *storeRepository) Update(store *models.Store) error {
	return r.db.Save(store).Error
}

// Delete deletes a store
func (r *storeRepository) Delete(id uint) error {
	return r.db.Delete(&models.Store{}, id).Error
}

// Count returns the total number of stores
func (r *storeRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Store{}).Count(&count).Error
	return count, err
}
