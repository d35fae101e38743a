package repository

import (
	"github.com/comanda-app/comanda/app/models"
	"gorm.io/gorm"
)

// productRepository implements the ProductRepository interface
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new product
func (r *productRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// GetByID retrieves a product by ID
func (r *productRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Category").First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByStore retrieves products of a store with pagination
func (r *productRepository) ListByStore(storeID uint, offset, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("store_id = ?", storeID).
		Preload("Category").
		Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&products).Error
	return products, err
}

// ListAvailableByStore retrieves the currently orderable menu of a store
func (r *productRepository) ListAvailableByStore(storeID uint) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("store_id = ? AND available = ?", storeID, true).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

// Update updates a product
func (r *productRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// Delete deletes a product
func (r *productRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

// CountByStore returns the number of products in a store
func (r *productRepository) CountByStore(storeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).Where("store_id = ?", storeID).Count(&count).Error
	return count, err
}
