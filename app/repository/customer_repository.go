package repository

import (
	"github.com/comanda-app/comanda/app/models"
	"gorm.io/gorm"
)

// customerRepository implements the CustomerRepository interface
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository instance
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Create creates a new customer
func (r *customerRepository) Create(customer *models.Customer) error {
	return r.db.Create(customer).Error
}

// GetByID retrieves a customer by ID
func (r *customerRepository) GetByID(id uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.First(&customer, id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetByPhone retrieves a customer of a store by phone number
func (r *customerRepository) GetByPhone(storeID uint, phone string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Where("store_id = ? AND phone = ?", storeID, phone).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// ListByStore retrieves customers of a store with pagination
func (r *customerRepository) ListByStore(storeID uint, offset, limit int) ([]models.Customer, error) {
	var customers []models.Customer
	err := r.db.Where("store_id = ?", storeID).
		Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&customers).Error
	return customers, err
}

// Search finds customers of a store by name or phone fragment
func (r *customerRepository) Search(storeID uint, query string) ([]models.Customer, error) {
	var customers []models.Customer
	like := "%" + query + "%"
	err := r.db.Where("store_id = ? AND (name LIKE ? OR phone LIKE ?)", storeID, like, like).
		Order("name ASC").
		Limit(50).
		Find(&customers).Error
	return customers, err
}

// Update updates a customer
func (r *customerRepository) Update(customer *models.Customer) error {
	return r.db.Save(customer).Error
}

// Delete deletes a customer
func (r *customerRepository) Delete(id uint) error {
	return r.db.Delete(&models.Customer{}, id).Error
}

// CountByStore returns the number of customers in a store
func (r *customerRepository) CountByStore(storeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Customer{}).Where("store_id = ?", storeID).Count(&count).Error
	return count, err
}
