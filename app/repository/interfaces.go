package repository

import (
	"github.com/comanda-app/comanda/app/models"
	"gorm.io/gorm"
)

// StoreRepository defines the interface for tenant-related database operations
type StoreRepository interface {
	Create(store *models.Store) error
	GetByID(id uint) (*models.Store, error)
	GetBySlug(slug string) (*models.Store, error)
	GetAll() ([]models.Store, error)
	Update(store *models.Store) error
	Delete(id uint) error
	Count() (int64, error)
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
}

// DeviceRepository defines the interface for device-related database operations
type DeviceRepository interface {
	Create(device *models.Device) error
	GetByID(id uint) (*models.Device, error)
	GetByIDForStore(id, storeID uint) (*models.Device, error)
	GetByHash(deviceHash string) (*models.Device, error)
	GetByPhoneNumber(phoneNumber string) (*models.Device, error)
	ListByStore(storeID uint) ([]models.Device, error)
	Update(device *models.Device) error
	SetMain(storeID, deviceID uint) error
	Delete(id uint) error
	CountByStore(storeID uint) (int64, error)
}

// DeviceEventRepository defines the interface for the append-only event log.
// Events are never updated or deleted.
type DeviceEventRepository interface {
	Append(event *models.DeviceEvent) error
	ListByDevice(deviceID uint, eventType string, limit, offset int) ([]models.DeviceEvent, int64, error)
}

// CategoryRepository defines the interface for menu category operations
type CategoryRepository interface {
	Create(category *models.Category) error
	GetByID(id uint) (*models.Category, error)
	ListByStore(storeID uint) ([]models.Category, error)
	Update(category *models.Category) error
	Delete(id uint) error
}

// ProductRepository defines the interface for product-related database operations
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	ListByStore(storeID uint, offset, limit int) ([]models.Product, error)
	ListAvailableByStore(storeID uint) ([]models.Product, error)
	Update(product *models.Product) error
	Delete(id uint) error
	CountByStore(storeID uint) (int64, error)
}

// CustomerRepository defines the interface for customer-related database operations
type CustomerRepository interface {
	Create(customer *models.Customer) error
	GetByID(id uint) (*models.Customer, error)
	GetByPhone(storeID uint, phone string) (*models.Customer, error)
	ListByStore(storeID uint, offset, limit int) ([]models.Customer, error)
	Search(storeID uint, query string) ([]models.Customer, error)
	Update(customer *models.Customer) error
	Delete(id uint) error
	CountByStore(storeID uint) (int64, error)
}

// OrderRepository defines the interface for order-related database operations
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	ListByStore(storeID uint, status string, offset, limit int) ([]models.Order, error)
	Update(order *models.Order) error
	Delete(id uint) error
	CountByStore(storeID uint) (int64, error)
	AddItem(item *models.OrderItem) error
	RemoveItem(orderID, itemID uint) error
	GetItems(orderID uint) ([]models.OrderItem, error)
}

// SettingRepository defines the interface for per-store settings
type SettingRepository interface {
	GetValue(storeID uint, key string) (string, error)
	SetValue(storeID uint, key, value string) error
	GetAll(storeID uint) ([]models.Setting, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Store       StoreRepository
	User        UserRepository
	Device      DeviceRepository
	DeviceEvent DeviceEventRepository
	Category    CategoryRepository
	Product     ProductRepository
	Customer    CustomerRepository
	Order       OrderRepository
	Setting     SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Store:       NewStoreRepository(db),
		User:        NewUserRepository(db),
		Device:      NewDeviceRepository(db),
		DeviceEvent: NewDeviceEventRepository(db),
		Category:    NewCategoryRepository(db),
		Product:     NewProductRepository(db),
		Customer:    NewCustomerRepository(db),
		Order:       NewOrderRepository(db),
		Setting:     NewSettingRepository(db),
	}
}
