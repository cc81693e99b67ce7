package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vendia/backend/internal/domain"
	"vendia/backend/internal/reconcile"
	"vendia/backend/internal/store"
)

// Service validates requests and orchestrates the repository and the
// reconciliation engine. Every stock-moving operation goes through the
// engine so cache invalidation and notifications always run.
type Service struct {
	repo   store.Repository
	engine *reconcile.Engine
	log    zerolog.Logger
}

func New(repo store.Repository, engine *reconcile.Engine, log zerolog.Logger) *Service {
	return &Service{repo: repo, engine: engine, log: log}
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryCreateRequest) (*domain.Category, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, store.ErrInvalid
	}
	return s.repo.CreateCategory(ctx, domain.Category{Name: req.Name, ParentID: req.ParentID})
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (*domain.Supplier, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, store.ErrInvalid
	}
	return s.repo.CreateSupplier(ctx, domain.Supplier{
		Name:         req.Name,
		URL:          req.URL,
		SupplierType: req.SupplierType,
		Description:  req.Description,
	})
}

func (s *Service) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (*domain.Customer, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.PhoneNumber) == "" {
		return nil, store.ErrInvalid
	}
	return s.repo.CreateCustomer(ctx, domain.Customer{
		Name:        req.Name,
		Email:       req.Email,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		Gender:      req.Gender,
	})
}

func (s *Service) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) CreateShippingMethod(ctx context.Context, req domain.ShippingMethodCreateRequest) (*domain.ShippingMethod, error) {
	if strings.TrimSpace(req.Name) == "" || req.Cost.IsNegative() {
		return nil, store.ErrInvalid
	}
	return s.repo.CreateShippingMethod(ctx, domain.ShippingMethod{Name: req.Name, Cost: req.Cost})
}

func (s *Service) ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error) {
	return s.repo.ListShippingMethods(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.ProductView, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.CategoryID) == "" {
		return nil, store.ErrInvalid
	}
	if req.PurchasePrice.IsNegative() || req.SalePrice.IsNegative() || req.OfferPrice.IsNegative() {
		return nil, store.ErrInvalid
	}
	if req.InitialStock < 0 || req.MinStock < 0 {
		return nil, store.ErrInvalid
	}

	product := domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		SupplierID:    req.SupplierID,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		OfferPrice:    req.OfferPrice,
		Slug:          Slugify(req.Name),
	}
	created, err := s.repo.CreateProduct(ctx, product, domain.InventoryRecord{
		CurrentStock: req.InitialStock,
		MinStock:     req.MinStock,
		MaxStock:     req.MaxStock,
	})
	if err != nil {
		return nil, err
	}
	return &domain.ProductView{Product: *created, Stock: req.InitialStock}, nil
}

// GetProduct returns the product with its derived stock figure. Stock comes
// from the reconciliation engine's read-through path, never from a field on
// the product itself.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.ProductView, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	stock, err := s.engine.AvailableStock(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ProductView{Product: *product, Stock: stock}, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.ProductView, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(products))
	for _, product := range products {
		ids = append(ids, product.ID)
	}
	stockMap, err := s.repo.GetStockMap(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ProductView, 0, len(products))
	for _, product := range products {
		views = append(views, domain.ProductView{Product: product, Stock: stockMap[product.ID]})
	}
	return views, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (*domain.ProductView, error) {
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	product := *existing
	if req.Name != nil {
		product.Name = *req.Name
		product.Slug = Slugify(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}
	if req.SupplierID != nil {
		product.SupplierID = *req.SupplierID
	}
	if req.PurchasePrice != nil {
		product.PurchasePrice = *req.PurchasePrice
	}
	if req.SalePrice != nil {
		product.SalePrice = *req.SalePrice
	}
	if req.OfferPrice != nil {
		product.OfferPrice = *req.OfferPrice
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	stock, err := s.engine.AvailableStock(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ProductView{Product: *updated, Stock: stock}, nil
}

func (s *Service) GetInventory(ctx context.Context, productID string) (*domain.InventoryRecord, error) {
	return s.repo.GetInventory(ctx, productID)
}

func (s *Service) SetInventoryLevels(ctx context.Context, productID string, req domain.InventoryLevelsRequest) (*domain.InventoryRecord, error) {
	return s.repo.SetInventoryLevels(ctx, productID, req.MinStock, req.MaxStock)
}

func (s *Service) ListLowStock(ctx context.Context) ([]domain.LowStockEntry, error) {
	return s.repo.ListLowStock(ctx)
}

func (s *Service) AvailableStock(ctx context.Context, productID string) (int, error) {
	return s.engine.AvailableStock(ctx, productID)
}

// CreateSale resolves each line's unit price (custom price if the request
// carries one, otherwise the product's offer price when set, otherwise the
// sale price) and commits the sale through the engine.
func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (*domain.Sale, error) {
	if len(req.Items) == 0 {
		return nil, store.ErrInvalid
	}

	if req.CustomerID != "" {
		if _, err := s.repo.GetCustomer(ctx, req.CustomerID); err != nil {
			return nil, err
		}
	}
	if req.ShippingID != "" {
		if _, err := s.repo.GetShippingMethod(ctx, req.ShippingID); err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(req.Items))
	for _, line := range req.Items {
		if line.ProductID == "" || line.Quantity < 1 {
			return nil, store.ErrInvalid
		}
		ids = append(ids, line.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]domain.SaleItem, 0, len(req.Items))
	for _, line := range req.Items {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, store.ErrNotFound
		}

		unitPrice := product.SalePrice
		if product.OfferPrice.IsPositive() {
			unitPrice = product.OfferPrice
		}
		if line.UnitPrice != nil {
			if line.UnitPrice.IsNegative() {
				return nil, store.ErrInvalid
			}
			unitPrice = *line.UnitPrice
		}

		items = append(items, domain.SaleItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		})
	}

	return s.engine.CommitSale(ctx, domain.Sale{
		CustomerID: req.CustomerID,
		ShippingID: req.ShippingID,
		Items:      items,
	})
}

func (s *Service) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return s.repo.GetSale(ctx, id)
}

func (s *Service) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, limit)
}

func (s *Service) CancelSale(ctx context.Context, id string) (*domain.Sale, error) {
	return s.engine.CancelSale(ctx, id)
}

func (s *Service) CreatePurchase(ctx context.Context, req domain.PurchaseCreateRequest) (*domain.Purchase, error) {
	if req.SupplierID == "" || len(req.Items) == 0 || req.Tax.IsNegative() {
		return nil, store.ErrInvalid
	}
	if _, err := s.repo.GetSupplier(ctx, req.SupplierID); err != nil {
		return nil, err
	}

	var deliveryDate *time.Time
	if req.DeliveryDate != "" {
		parsed, err := time.Parse("2006-01-02", req.DeliveryDate)
		if err != nil {
			return nil, store.ErrInvalid
		}
		deliveryDate = &parsed
	}

	items := make([]domain.PurchaseItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.ProductID == "" || line.Quantity < 1 {
			return nil, store.ErrInvalid
		}
		items = append(items, domain.PurchaseItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	return s.engine.CommitPurchase(ctx, domain.Purchase{
		SupplierID:   req.SupplierID,
		Tax:          req.Tax,
		PurchaseType: req.PurchaseType,
		DeliveryDate: deliveryDate,
		Items:        items,
	})
}

func (s *Service) GetPurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	return s.repo.GetPurchase(ctx, id)
}

func (s *Service) ListPurchases(ctx context.Context, limit int) ([]domain.Purchase, error) {
	return s.repo.ListPurchases(ctx, limit)
}

func (s *Service) CancelPurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	return s.engine.CancelPurchase(ctx, id)
}

func (s *Service) CreateReturn(ctx context.Context, req domain.ReturnCreateRequest) (*domain.Return, error) {
	if req.SaleID == "" || req.ProductID == "" || req.Quantity < 1 {
		return nil, store.ErrInvalid
	}
	return s.repo.CreateReturn(ctx, domain.Return{
		SaleID:    req.SaleID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	})
}

func (s *Service) GetReturn(ctx context.Context, id string) (*domain.Return, error) {
	return s.repo.GetReturn(ctx, id)
}

func (s *Service) ListReturns(ctx context.Context, limit int) ([]domain.Return, error) {
	return s.repo.ListReturns(ctx, limit)
}

func (s *Service) AdvanceReturn(ctx context.Context, id string, req domain.ReturnTransitionRequest) (*domain.Return, error) {
	if req.Status == "" {
		return nil, store.ErrInvalid
	}
	return s.engine.AdvanceReturn(ctx, id, req.Status)
}

// Slugify lowercases the name and collapses every non-alphanumeric run
// into a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
