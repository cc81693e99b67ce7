package store

import (
	"context"
	"errors"
	"fmt"

	"vendia/backend/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid request")
	// ErrConflict reports that a concurrent writer invalidated this
	// transaction at commit time; callers may retry a bounded number of times.
	ErrConflict = errors.New("concurrent stock modification")
)

// InsufficientStockError names the first sale line whose quantity exceeded
// available stock. The whole transaction is rejected without mutation.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// InventoryNotFoundError reports a referenced product with no inventory
// record. It fails the transaction; the caller may create a zero-stock
// record and retry.
type InventoryNotFoundError struct {
	ProductID string
}

func (e *InventoryNotFoundError) Error() string {
	return fmt.Sprintf("no inventory record for product %s", e.ProductID)
}

type Repository interface {
	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)

	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)

	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)

	CreateShippingMethod(ctx context.Context, method domain.ShippingMethod) (*domain.ShippingMethod, error)
	GetShippingMethod(ctx context.Context, id string) (*domain.ShippingMethod, error)
	ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error)

	CreateProduct(ctx context.Context, product domain.Product, initial domain.InventoryRecord) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)

	GetInventory(ctx context.Context, productID string) (*domain.InventoryRecord, error)
	GetStockMap(ctx context.Context, productIDs []string) (map[string]int, error)
	SetInventoryLevels(ctx context.Context, productID string, minStock int, maxStock int) (*domain.InventoryRecord, error)
	ListLowStock(ctx context.Context) ([]domain.LowStockEntry, error)

	// CreateSale validates every line against stock under one transaction,
	// decrements all lines or none, and persists the finished sale. The
	// returned changes carry post-commit stock per product.
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, []domain.StockChange, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, limit int) ([]domain.Sale, error)
	CancelSale(ctx context.Context, id string) (*domain.Sale, []domain.StockChange, error)

	CreatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, []domain.StockChange, error)
	GetPurchase(ctx context.Context, id string) (*domain.Purchase, error)
	ListPurchases(ctx context.Context, limit int) ([]domain.Purchase, error)
	CancelPurchase(ctx context.Context, id string) (*domain.Purchase, []domain.StockChange, error)

	CreateReturn(ctx context.Context, ret domain.Return) (*domain.Return, error)
	GetReturn(ctx context.Context, id string) (*domain.Return, error)
	ListReturns(ctx context.Context, limit int) ([]domain.Return, error)
	// TransitionReturn moves a return to the next status. Entering completed
	// reverses the original decrement exactly once, guarded inside the same
	// transaction; the change slice is empty for every other transition.
	TransitionReturn(ctx context.Context, id string, next string) (*domain.Return, []domain.StockChange, error)
}
