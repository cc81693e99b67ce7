package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"vendia/backend/internal/domain"
	"vendia/backend/internal/store"
	"vendia/backend/internal/xid"
)

// Store is an in-memory repository with the same transactional semantics as
// the postgres store. It backs local development and tests.
type Store struct {
	mu sync.RWMutex

	categories      map[string]domain.Category
	suppliers       map[string]domain.Supplier
	customers       map[string]domain.Customer
	shippingMethods map[string]domain.ShippingMethod
	products        map[string]domain.Product
	inventory       map[string]domain.InventoryRecord
	sales           map[string]domain.Sale
	purchases       map[string]domain.Purchase
	returns         map[string]domain.Return

	correlative int
}

func New() *Store {
	return &Store{
		categories:      make(map[string]domain.Category),
		suppliers:       make(map[string]domain.Supplier),
		customers:       make(map[string]domain.Customer),
		shippingMethods: make(map[string]domain.ShippingMethod),
		products:        make(map[string]domain.Product),
		inventory:       make(map[string]domain.InventoryRecord),
		sales:           make(map[string]domain.Sale),
		purchases:       make(map[string]domain.Purchase),
		returns:         make(map[string]domain.Return),
	}
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	if strings.TrimSpace(category.Name) == "" {
		return nil, store.ErrInvalid
	}
	if category.ID == "" {
		category.ID = xid.New("cat")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[category.ID]; exists {
		return nil, store.ErrInvalid
	}
	s.categories[category.ID] = category
	created := category
	return &created, nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if strings.TrimSpace(supplier.Name) == "" {
		return nil, store.ErrInvalid
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.suppliers[supplier.ID] = supplier
	created := supplier
	return &created, nil
}

func (s *Store) GetSupplier(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, ok := s.suppliers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &supplier, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliers))
	for _, supplier := range s.suppliers {
		suppliers = append(suppliers, supplier)
	}
	sort.Slice(suppliers, func(i, j int) bool { return suppliers[i].Name < suppliers[j].Name })
	return suppliers, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(customer.Name) == "" || strings.TrimSpace(customer.PhoneNumber) == "" {
		return nil, store.ErrInvalid
	}
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}
	customer.Active = true

	s.mu.Lock()
	defer s.mu.Unlock()

	s.customers[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &customer, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		if customer.Active {
			customers = append(customers, customer)
		}
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].Name < customers[j].Name })
	return customers, nil
}

func (s *Store) CreateShippingMethod(_ context.Context, method domain.ShippingMethod) (*domain.ShippingMethod, error) {
	if strings.TrimSpace(method.Name) == "" || method.Cost.IsNegative() {
		return nil, store.ErrInvalid
	}
	if method.ID == "" {
		method.ID = xid.New("ship")
	}
	method.Active = true

	s.mu.Lock()
	defer s.mu.Unlock()

	s.shippingMethods[method.ID] = method
	created := method
	return &created, nil
}

func (s *Store) GetShippingMethod(_ context.Context, id string) (*domain.ShippingMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	method, ok := s.shippingMethods[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &method, nil
}

func (s *Store) ListShippingMethods(_ context.Context) ([]domain.ShippingMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	methods := make([]domain.ShippingMethod, 0, len(s.shippingMethods))
	for _, method := range s.shippingMethods {
		if method.Active {
			methods = append(methods, method)
		}
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].Name < methods[j].Name })
	return methods, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product, initial domain.InventoryRecord) (*domain.Product, error) {
	if strings.TrimSpace(product.Name) == "" || strings.TrimSpace(product.CategoryID) == "" {
		return nil, store.ErrInvalid
	}
	if product.PurchasePrice.IsNegative() || product.SalePrice.IsNegative() || product.OfferPrice.IsNegative() {
		return nil, store.ErrInvalid
	}
	if initial.CurrentStock < 0 || initial.MinStock < 0 || (initial.MaxStock > 0 && initial.MaxStock < initial.MinStock) {
		return nil, store.ErrInvalid
	}
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrInvalid
	}
	s.products[product.ID] = product
	s.inventory[product.ID] = domain.InventoryRecord{
		ProductID:    product.ID,
		CurrentStock: initial.CurrentStock,
		MinStock:     initial.MinStock,
		MaxStock:     initial.MaxStock,
		UpdatedAt:    now,
	}

	created := product
	return &created, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			products[id] = product
		}
	}
	return products, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, product := range s.products {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || strings.TrimSpace(product.Name) == "" || strings.TrimSpace(product.CategoryID) == "" {
		return nil, store.ErrInvalid
	}
	if product.PurchasePrice.IsNegative() || product.SalePrice.IsNegative() || product.OfferPrice.IsNegative() {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.products[product.ID] = product

	updated := product
	return &updated, nil
}

func (s *Store) GetInventory(_ context.Context, productID string) (*domain.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.inventory[productID]
	if !ok {
		return nil, &store.InventoryNotFoundError{ProductID: productID}
	}
	return &record, nil
}

func (s *Store) GetStockMap(_ context.Context, productIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stockMap := make(map[string]int, len(productIDs))
	for _, id := range productIDs {
		if record, ok := s.inventory[id]; ok {
			stockMap[id] = record.CurrentStock
		}
	}
	return stockMap, nil
}

func (s *Store) SetInventoryLevels(_ context.Context, productID string, minStock int, maxStock int) (*domain.InventoryRecord, error) {
	if minStock < 0 || (maxStock > 0 && maxStock < minStock) {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.inventory[productID]
	if !ok {
		return nil, &store.InventoryNotFoundError{ProductID: productID}
	}
	record.MinStock = minStock
	record.MaxStock = maxStock
	record.UpdatedAt = time.Now().UTC()
	s.inventory[productID] = record
	return &record, nil
}

func (s *Store) ListLowStock(_ context.Context) ([]domain.LowStockEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.LowStockEntry, 0, 8)
	for productID, record := range s.inventory {
		if record.CurrentStock >= record.MinStock {
			continue
		}
		entries = append(entries, domain.LowStockEntry{
			ProductID:    productID,
			ProductName:  s.products[productID].Name,
			CurrentStock: record.CurrentStock,
			MinStock:     record.MinStock,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ProductName < entries[j].ProductName })
	return entries, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, []domain.StockChange, error) {
	if len(sale.Items) == 0 {
		return nil, nil, store.ErrInvalid
	}
	for _, item := range sale.Items {
		if item.Quantity < 1 || item.UnitPrice.IsNegative() {
			return nil, nil, store.ErrInvalid
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	qtyByProduct := make(map[string]int, len(sale.Items))
	productIDs := make([]string, 0, len(sale.Items))
	for _, item := range sale.Items {
		if _, seen := qtyByProduct[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		qtyByProduct[item.ProductID] += item.Quantity
	}

	// Validate every line before mutating any stock.
	for _, productID := range productIDs {
		record, ok := s.inventory[productID]
		if !ok {
			return nil, nil, &store.InventoryNotFoundError{ProductID: productID}
		}
		if qtyByProduct[productID] > record.CurrentStock {
			return nil, nil, &store.InsufficientStockError{
				ProductID: productID,
				Requested: qtyByProduct[productID],
				Available: record.CurrentStock,
			}
		}
	}

	shippingCost := decimal.Zero
	if sale.ShippingID != "" {
		method, ok := s.shippingMethods[sale.ShippingID]
		if !ok || !method.Active {
			return nil, nil, store.ErrNotFound
		}
		shippingCost = method.Cost
	}

	now := time.Now().UTC()
	changes := make([]domain.StockChange, 0, len(productIDs))
	for _, productID := range productIDs {
		record := s.inventory[productID]
		record.CurrentStock -= qtyByProduct[productID]
		record.UpdatedAt = now
		s.inventory[productID] = record
		changes = append(changes, domain.StockChange{
			ProductID: productID,
			NewStock:  record.CurrentStock,
			MinStock:  record.MinStock,
			Reason:    domain.StockReasonSale,
		})
	}

	total := decimal.Zero
	items := make([]domain.SaleItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		item.Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(item.Subtotal)
		items = append(items, item)
	}
	total = total.Add(shippingCost)

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.SaleDate.IsZero() {
		sale.SaleDate = now
	}
	s.correlative++
	sale.CorrelativeNumber = fmt.Sprintf("SALE-%d", s.correlative)
	sale.State = domain.SaleStateFinished
	sale.ShippingCost = shippingCost
	sale.Total = total
	sale.Items = items
	s.sales[sale.ID] = cloneSale(sale)

	created := cloneSale(sale)
	return &created, changes, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := cloneSale(sale)
	return &found, nil
}

func (s *Store) ListSales(_ context.Context, limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		sales = append(sales, cloneSale(sale))
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].SaleDate.After(sales[j].SaleDate) })
	if len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

func (s *Store) CancelSale(_ context.Context, id string) (*domain.Sale, []domain.StockChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, nil, store.ErrNotFound
	}
	if sale.State != domain.SaleStateFinished {
		return nil, nil, store.ErrInvalid
	}

	now := time.Now().UTC()
	qtyByProduct := make(map[string]int, len(sale.Items))
	for _, item := range sale.Items {
		qtyByProduct[item.ProductID] += item.Quantity
	}

	changes := make([]domain.StockChange, 0, len(qtyByProduct))
	for _, productID := range sortedKeys(qtyByProduct) {
		record, ok := s.inventory[productID]
		if !ok {
			return nil, nil, &store.InventoryNotFoundError{ProductID: productID}
		}
		record.CurrentStock += qtyByProduct[productID]
		record.UpdatedAt = now
		s.inventory[productID] = record
		changes = append(changes, domain.StockChange{
			ProductID: productID,
			NewStock:  record.CurrentStock,
			MinStock:  record.MinStock,
			Reason:    domain.StockReasonSaleCanceled,
		})
	}

	sale.State = domain.SaleStateCanceled
	s.sales[id] = cloneSale(sale)

	canceled := cloneSale(sale)
	return &canceled, changes, nil
}

func (s *Store) CreatePurchase(_ context.Context, purchase domain.Purchase) (*domain.Purchase, []domain.StockChange, error) {
	if purchase.SupplierID == "" || len(purchase.Items) == 0 || purchase.Tax.IsNegative() {
		return nil, nil, store.ErrInvalid
	}
	for _, item := range purchase.Items {
		if item.Quantity < 1 {
			return nil, nil, store.ErrInvalid
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	qtyByProduct := make(map[string]int, len(purchase.Items))
	productIDs := make([]string, 0, len(purchase.Items))
	for _, item := range purchase.Items {
		if _, seen := qtyByProduct[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		qtyByProduct[item.ProductID] += item.Quantity
	}

	for _, productID := range productIDs {
		if _, ok := s.products[productID]; !ok {
			return nil, nil, store.ErrNotFound
		}
		if _, ok := s.inventory[productID]; !ok {
			return nil, nil, &store.InventoryNotFoundError{ProductID: productID}
		}
	}

	now := time.Now().UTC()
	changes := make([]domain.StockChange, 0, len(productIDs))
	for _, productID := range productIDs {
		record := s.inventory[productID]
		record.CurrentStock += qtyByProduct[productID]
		record.UpdatedAt = now
		s.inventory[productID] = record
		changes = append(changes, domain.StockChange{
			ProductID: productID,
			NewStock:  record.CurrentStock,
			MinStock:  record.MinStock,
			Reason:    domain.StockReasonPurchase,
		})
	}

	total := decimal.Zero
	items := make([]domain.PurchaseItem, 0, len(purchase.Items))
	for _, item := range purchase.Items {
		item.Subtotal = s.products[item.ProductID].PurchasePrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(item.Subtotal)
		items = append(items, item)
	}
	total = total.Add(purchase.Tax)

	if purchase.ID == "" {
		purchase.ID = xid.New("purch")
	}
	if purchase.PurchaseDate.IsZero() {
		purchase.PurchaseDate = now
	}
	purchase.State = domain.PurchaseStateFinished
	purchase.Total = total
	purchase.Items = items
	s.purchases[purchase.ID] = clonePurchase(purchase)

	created := clonePurchase(purchase)
	return &created, changes, nil
}

func (s *Store) GetPurchase(_ context.Context, id string) (*domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchase, ok := s.purchases[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := clonePurchase(purchase)
	return &found, nil
}

func (s *Store) ListPurchases(_ context.Context, limit int) ([]domain.Purchase, error) {
	if limit < 1 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	purchases := make([]domain.Purchase, 0, len(s.purchases))
	for _, purchase := range s.purchases {
		purchases = append(purchases, clonePurchase(purchase))
	}
	sort.Slice(purchases, func(i, j int) bool { return purchases[i].PurchaseDate.After(purchases[j].PurchaseDate) })
	if len(purchases) > limit {
		purchases = purchases[:limit]
	}
	return purchases, nil
}

func (s *Store) CancelPurchase(_ context.Context, id string) (*domain.Purchase, []domain.StockChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchase, ok := s.purchases[id]
	if !ok {
		return nil, nil, store.ErrNotFound
	}
	if purchase.State != domain.PurchaseStateFinished {
		return nil, nil, store.ErrInvalid
	}

	qtyByProduct := make(map[string]int, len(purchase.Items))
	for _, item := range purchase.Items {
		qtyByProduct[item.ProductID] += item.Quantity
	}

	for _, productID := range sortedKeys(qtyByProduct) {
		record, ok := s.inventory[productID]
		if !ok {
			return nil, nil, &store.InventoryNotFoundError{ProductID: productID}
		}
		if record.CurrentStock < qtyByProduct[productID] {
			return nil, nil, &store.InsufficientStockError{
				ProductID: productID,
				Requested: qtyByProduct[productID],
				Available: record.CurrentStock,
			}
		}
	}

	now := time.Now().UTC()
	changes := make([]domain.StockChange, 0, len(qtyByProduct))
	for _, productID := range sortedKeys(qtyByProduct) {
		record := s.inventory[productID]
		record.CurrentStock -= qtyByProduct[productID]
		record.UpdatedAt = now
		s.inventory[productID] = record
		changes = append(changes, domain.StockChange{
			ProductID: productID,
			NewStock:  record.CurrentStock,
			MinStock:  record.MinStock,
			Reason:    domain.StockReasonPurchaseCancel,
		})
	}

	purchase.State = domain.PurchaseStateCanceled
	s.purchases[id] = clonePurchase(purchase)

	canceled := clonePurchase(purchase)
	return &canceled, changes, nil
}

func (s *Store) CreateReturn(_ context.Context, ret domain.Return) (*domain.Return, error) {
	if ret.SaleID == "" || ret.ProductID == "" || ret.Quantity < 1 {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[ret.SaleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if sale.State != domain.SaleStateFinished {
		return nil, store.ErrInvalid
	}

	soldQty := 0
	for _, item := range sale.Items {
		if item.ProductID == ret.ProductID {
			soldQty += item.Quantity
		}
	}
	if soldQty == 0 {
		return nil, store.ErrNotFound
	}

	returnedQty := 0
	for _, existing := range s.returns {
		if existing.SaleID != ret.SaleID || existing.ProductID != ret.ProductID {
			continue
		}
		if existing.Status == domain.ReturnStatusCancelled || existing.Status == domain.ReturnStatusRejected {
			continue
		}
		returnedQty += existing.Quantity
	}
	if ret.Quantity > soldQty-returnedQty {
		return nil, store.ErrInvalid
	}

	if ret.ID == "" {
		ret.ID = xid.New("ret")
	}
	now := time.Now().UTC()
	ret.Status = domain.ReturnStatusPending
	ret.StockReversed = false
	ret.CreatedAt = now
	ret.UpdatedAt = now
	s.returns[ret.ID] = ret

	created := ret
	return &created, nil
}

func (s *Store) GetReturn(_ context.Context, id string) (*domain.Return, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret, ok := s.returns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &ret, nil
}

func (s *Store) ListReturns(_ context.Context, limit int) ([]domain.Return, error) {
	if limit < 1 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	returns := make([]domain.Return, 0, len(s.returns))
	for _, ret := range s.returns {
		returns = append(returns, ret)
	}
	sort.Slice(returns, func(i, j int) bool { return returns[i].CreatedAt.After(returns[j].CreatedAt) })
	if len(returns) > limit {
		returns = returns[:limit]
	}
	return returns, nil
}

func (s *Store) TransitionReturn(_ context.Context, id string, next string) (*domain.Return, []domain.StockChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ret, ok := s.returns[id]
	if !ok {
		return nil, nil, store.ErrNotFound
	}
	if !domain.IsValidReturnTransition(ret.Status, next) {
		return nil, nil, store.ErrInvalid
	}

	now := time.Now().UTC()
	var changes []domain.StockChange

	if next == domain.ReturnStatusCompleted {
		if ret.StockReversed {
			return nil, nil, store.ErrConflict
		}
		record, ok := s.inventory[ret.ProductID]
		if !ok {
			return nil, nil, &store.InventoryNotFoundError{ProductID: ret.ProductID}
		}
		record.CurrentStock += ret.Quantity
		record.UpdatedAt = now
		s.inventory[ret.ProductID] = record
		ret.StockReversed = true
		changes = append(changes, domain.StockChange{
			ProductID: ret.ProductID,
			NewStock:  record.CurrentStock,
			MinStock:  record.MinStock,
			Reason:    domain.StockReasonReturn,
		})
	}

	ret.Status = next
	ret.UpdatedAt = now
	s.returns[id] = ret

	updated := ret
	return &updated, changes, nil
}

func cloneSale(sale domain.Sale) domain.Sale {
	out := sale
	out.Items = append([]domain.SaleItem(nil), sale.Items...)
	return out
}

func clonePurchase(purchase domain.Purchase) domain.Purchase {
	out := purchase
	out.Items = append([]domain.PurchaseItem(nil), purchase.Items...)
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
