package repository

import (
	"github.com/comanda-app/comanda/app/models"
	"gorm.io/gorm"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create creates a new order
func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID retrieves an order by ID including items and customer
func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Preload("Items.Product").Preload("Customer").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByStore retrieves orders of a store, optionally filtered by status
// (one kanban column), newest first.
func (r *orderRepository) ListByStore(storeID uint, status string, offset, limit int) ([]models.Order, error) {
	q := r.db.Where("store_id = ?", storeID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var orders []models.Order
	err := q.Preload("Items").Preload("Customer").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	return orders, err
}

// Update updates an order
func (r *orderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// Delete deletes an order
func (r *orderRepository) Delete(id uint) error {
	return r.db.Delete(&models.Order{}, id).Error
}

// CountByStore returns the number of orders in a store
func (r *orderRepository) CountByStore(storeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Where("store_id = ?", storeID).Count(&count).Error
	return count, err
}

// AddItem appends a line to an order
func (r *orderRepository) AddItem(item *models.OrderItem) error {
	return r.db.Create(item).Error
}

// RemoveItem removes a line from an order
func (r *orderRepository) RemoveItem(orderID, itemID uint) error {
	return r.db.Where("order_id = ?", orderID).Delete(&models.OrderItem{}, itemID).Error
}

// GetItems returns all lines of an order
func (r *orderRepository) GetItems(orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.Where("order_id = ?", orderID).Find(&items).Error
	return items, err
}
