package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

type CategoryCreateRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

type Supplier struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	URL          string    `json:"url,omitempty"`
	SupplierType string    `json:"supplier_type,omitempty"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type SupplierCreateRequest struct {
	Name         string `json:"name"`
	URL          string `json:"url,omitempty"`
	SupplierType string `json:"supplier_type,omitempty"`
	Description  string `json:"description,omitempty"`
}

type Customer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Address     string    `json:"address,omitempty"`
	PhoneNumber string    `json:"phone_number"`
	Gender      string    `json:"gender,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Address     string `json:"address,omitempty"`
	PhoneNumber string `json:"phone_number"`
	Gender      string `json:"gender,omitempty"`
}

type ShippingMethod struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Cost   decimal.Decimal `json:"cost"`
	Active bool            `json:"active"`
}

type ShippingMethodCreateRequest struct {
	Name string          `json:"name"`
	Cost decimal.Decimal `json:"cost"`
}

type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	CategoryID    string          `json:"category_id"`
	SupplierID    string          `json:"supplier_id,omitempty"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	OfferPrice    decimal.Decimal `json:"offer_price"`
	Slug          string          `json:"slug"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductView is a Product plus its derived stock figure. Stock is owned by
// the inventory record; it is copied here for reads and never written back.
type ProductView struct {
	Product
	Stock int `json:"stock"`
}

type ProductCreateRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	CategoryID    string          `json:"category_id"`
	SupplierID    string          `json:"supplier_id,omitempty"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	OfferPrice    decimal.Decimal `json:"offer_price"`
	InitialStock  int             `json:"initial_stock"`
	MinStock      int             `json:"min_stock"`
	MaxStock      int             `json:"max_stock"`
}

type ProductUpdateRequest struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	CategoryID    *string          `json:"category_id,omitempty"`
	SupplierID    *string          `json:"supplier_id,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	OfferPrice    *decimal.Decimal `json:"offer_price,omitempty"`
}

type InventoryRecord struct {
	ProductID    string    `json:"product_id"`
	CurrentStock int       `json:"current_stock"`
	MinStock     int       `json:"min_stock"`
	MaxStock     int       `json:"max_stock"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type InventoryLevelsRequest struct {
	MinStock int `json:"min_stock"`
	MaxStock int `json:"max_stock"`
}

type SaleItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Sale struct {
	ID                string          `json:"id"`
	CorrelativeNumber string          `json:"correlative_number"`
	CustomerID        string          `json:"customer_id,omitempty"`
	ShippingID        string          `json:"shipping_id,omitempty"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	State             string          `json:"state"`
	Total             decimal.Decimal `json:"total"`
	SaleDate          time.Time       `json:"sale_date"`
	Items             []SaleItem      `json:"items"`
}

type SaleLineRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type SaleCreateRequest struct {
	CustomerID string            `json:"customer_id,omitempty"`
	ShippingID string            `json:"shipping_id,omitempty"`
	Items      []SaleLineRequest `json:"items"`
}

type PurchaseItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Purchase struct {
	ID           string          `json:"id"`
	SupplierID   string          `json:"supplier_id"`
	Tax          decimal.Decimal `json:"tax"`
	PurchaseType string          `json:"purchase_type,omitempty"`
	State        string          `json:"state"`
	Total        decimal.Decimal `json:"total"`
	PurchaseDate time.Time       `json:"purchase_date"`
	DeliveryDate *time.Time      `json:"delivery_date,omitempty"`
	Items        []PurchaseItem  `json:"items"`
}

type PurchaseLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type PurchaseCreateRequest struct {
	SupplierID   string                `json:"supplier_id"`
	Tax          decimal.Decimal       `json:"tax"`
	PurchaseType string                `json:"purchase_type,omitempty"`
	DeliveryDate string                `json:"delivery_date,omitempty"`
	Items        []PurchaseLineRequest `json:"items"`
}

type Return struct {
	ID            string    `json:"id"`
	SaleID        string    `json:"sale_id"`
	ProductID     string    `json:"product_id"`
	Quantity      int       `json:"quantity"`
	Status        string    `json:"status"`
	StockReversed bool      `json:"stock_reversed"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ReturnCreateRequest struct {
	SaleID    string `json:"sale_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason,omitempty"`
}

type ReturnTransitionRequest struct {
	Status string `json:"status"`
}

// StockChange records one committed inventory mutation; the reconciliation
// engine turns each into a cache invalidation and a notification.
type StockChange struct {
	ProductID string
	NewStock  int
	MinStock  int
	Reason    string
}

type LowStockEntry struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	CurrentStock int    `json:"current_stock"`
	MinStock     int    `json:"min_stock"`
}

const (
	SaleStatePending  = "pending"
	SaleStateFinished = "finished"
	SaleStateCanceled = "canceled"
)

const (
	PurchaseStatePending  = "pending"
	PurchaseStateFinished = "finished"
	PurchaseStateCanceled = "canceled"
)

const (
	ReturnStatusPending   = "pending"
	ReturnStatusInProcess = "in_process"
	ReturnStatusProcessed = "processed"
	ReturnStatusCompleted = "completed"
	ReturnStatusCancelled = "cancelled"
	ReturnStatusRejected  = "rejected"
)

const (
	StockReasonSale           = "sale"
	StockReasonSaleCanceled   = "sale_canceled"
	StockReasonPurchase       = "purchase"
	StockReasonPurchaseCancel = "purchase_canceled"
	StockReasonReturn         = "return"
	StockReasonAdjustment     = "adjustment"
)

// nextReturnStatuses maps each return status to the transitions the state
// machine allows out of it. completed, cancelled and rejected are terminal.
var nextReturnStatuses = map[string][]string{
	ReturnStatusPending:   {ReturnStatusInProcess, ReturnStatusCancelled, ReturnStatusRejected},
	ReturnStatusInProcess: {ReturnStatusProcessed},
	ReturnStatusProcessed: {ReturnStatusCompleted},
}

func IsValidReturnTransition(from string, to string) bool {
	for _, allowed := range nextReturnStatuses[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
