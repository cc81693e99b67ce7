package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"vendia/backend/internal/domain"
	"vendia/backend/internal/store"
	"vendia/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if strings.TrimSpace(category.Name) == "" {
		return nil, store.ErrInvalid
	}
	if category.ID == "" {
		category.ID = xid.New("cat")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, parent_id)
		VALUES ($1,$2,$3)
	`, category.ID, category.Name, nullIfEmpty(category.ParentID))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalid
		}
		return nil, err
	}

	created := category
	return &created, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(parent_id, '')
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 32)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if strings.TrimSpace(supplier.Name) == "" {
		return nil, store.ErrInvalid
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, url, supplier_type, description, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, supplier.ID, supplier.Name, nullIfEmpty(supplier.URL), nullIfEmpty(supplier.SupplierType), nullIfEmpty(supplier.Description), supplier.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalid
		}
		return nil, err
	}

	created := supplier
	return &created, nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(url, ''), COALESCE(supplier_type, ''), COALESCE(description, ''), created_at
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&supplier.ID, &supplier.Name, &supplier.URL, &supplier.SupplierType, &supplier.Description, &supplier.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(url, ''), COALESCE(supplier_type, ''), COALESCE(description, ''), created_at
		FROM suppliers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 32)
	for rows.Next() {
		var supplier domain.Supplier
		if err := rows.Scan(&supplier.ID, &supplier.Name, &supplier.URL, &supplier.SupplierType, &supplier.Description, &supplier.CreatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, supplier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, address, phone_number, gender, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, customer.ID, customer.Name, nullIfEmpty(customer.Email), nullIfEmpty(customer.Address), customer.PhoneNumber, nullIfEmpty(customer.Gender), customer.Active, customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalid
		}
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var customer domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(email, ''), COALESCE(address, ''), phone_number, COALESCE(gender, ''), active, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Address, &customer.PhoneNumber, &customer.Gender, &customer.Active, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(email, ''), COALESCE(address, ''), phone_number, COALESCE(gender, ''), active, created_at
		FROM customers
		WHERE active = true
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Address, &customer.PhoneNumber, &customer.Gender, &customer.Active, &customer.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) CreateShippingMethod(ctx context.Context, method domain.ShippingMethod) (*domain.ShippingMethod, error) {
	if strings.TrimSpace(method.Name) == "" || method.Cost.IsNegative() {
		return nil, store.ErrInvalid
	}
	if method.ID == "" {
		method.ID = xid.New("ship")
	}
	method.Active = true

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shipping_methods (id, name, cost, active)
		VALUES ($1,$2,$3,$4)
	`, method.ID, method.Name, method.Cost, method.Active)
	if err != nil {
		return nil, err
	}

	created := method
	return &created, nil
}

func (s *Store) GetShippingMethod(ctx context.Context, id string) (*domain.ShippingMethod, error) {
	var method domain.ShippingMethod
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, cost, active
		FROM shipping_methods
		WHERE id = $1
	`, id).Scan(&method.ID, &method.Name, &method.Cost, &method.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &method, nil
}

func (s *Store) ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, cost, active
		FROM shipping_methods
		WHERE active = true
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := make([]domain.ShippingMethod, 0, 16)
	for rows.Next() {
		var method domain.ShippingMethod
		if err := rows.Scan(&method.ID, &method.Name, &method.Cost, &method.Active); err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return methods, nil
}

// CreateProduct inserts the product and its inventory record in one
// transaction so a product can never exist without a stock record.
func (s *Store) CreateProduct(ctx context.Context, product domain.Product, initial domain.InventoryRecord) (*domain.Product, error) {
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

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, name, description, category_id, supplier_id, purchase_price, sale_price, offer_price, slug, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, product.ID, product.Name, product.Description, product.CategoryID, nullIfEmpty(product.SupplierID),
		product.PurchasePrice, product.SalePrice, product.OfferPrice, product.Slug, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalid
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory (product_id, current_stock, min_stock, max_stock, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`, product.ID, initial.CurrentStock, initial.MinStock, initial.MaxStock, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := product
	return &created, nil
}

const productColumns = `id, name, COALESCE(description, ''), category_id, COALESCE(supplier_id, ''), purchase_price, sale_price, offer_price, slug, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.SupplierID,
		&p.PurchasePrice, &p.SalePrice, &p.OfferPrice, &p.Slug, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	products := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || strings.TrimSpace(product.Name) == "" || strings.TrimSpace(product.CategoryID) == "" {
		return nil, store.ErrInvalid
	}
	if product.PurchasePrice.IsNegative() || product.SalePrice.IsNegative() || product.OfferPrice.IsNegative() {
		return nil, store.ErrInvalid
	}
	product.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, category_id = $4, supplier_id = $5,
			purchase_price = $6, sale_price = $7, offer_price = $8, slug = $9, updated_at = $10
		WHERE id = $1
	`, product.ID, product.Name, product.Description, product.CategoryID, nullIfEmpty(product.SupplierID),
		product.PurchasePrice, product.SalePrice, product.OfferPrice, product.Slug, product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) GetInventory(ctx context.Context, productID string) (*domain.InventoryRecord, error) {
	var record domain.InventoryRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT product_id, current_stock, min_stock, max_stock, updated_at
		FROM inventory
		WHERE product_id = $1
	`, productID).Scan(&record.ProductID, &record.CurrentStock, &record.MinStock, &record.MaxStock, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &store.InventoryNotFoundError{ProductID: productID}
		}
		return nil, err
	}
	return &record, nil
}

func (s *Store) GetStockMap(ctx context.Context, productIDs []string) (map[string]int, error) {
	stockMap := make(map[string]int, len(productIDs))
	if len(productIDs) == 0 {
		return stockMap, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, current_stock
		FROM inventory
		WHERE product_id = ANY($1)
	`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var productID string
		var stock int
		if err := rows.Scan(&productID, &stock); err != nil {
			return nil, err
		}
		stockMap[productID] = stock
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stockMap, nil
}

func (s *Store) SetInventoryLevels(ctx context.Context, productID string, minStock int, maxStock int) (*domain.InventoryRecord, error) {
	if minStock < 0 || (maxStock > 0 && maxStock < minStock) {
		return nil, store.ErrInvalid
	}

	var record domain.InventoryRecord
	err := s.db.QueryRowContext(ctx, `
		UPDATE inventory
		SET min_stock = $2, max_stock = $3, updated_at = now()
		WHERE product_id = $1
		RETURNING product_id, current_stock, min_stock, max_stock, updated_at
	`, productID, minStock, maxStock).Scan(&record.ProductID, &record.CurrentStock, &record.MinStock, &record.MaxStock, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &store.InventoryNotFoundError{ProductID: productID}
		}
		return nil, err
	}
	return &record, nil
}

func (s *Store) ListLowStock(ctx context.Context) ([]domain.LowStockEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.product_id, p.name, i.current_stock, i.min_stock
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		WHERE i.current_stock < i.min_stock
		ORDER BY p.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.LowStockEntry, 0, 32)
	for rows.Next() {
		var entry domain.LowStockEntry
		if err := rows.Scan(&entry.ProductID, &entry.ProductName, &entry.CurrentStock, &entry.MinStock); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateSale validates every line against locked inventory rows before any
// decrement runs, then applies all decrements and persists the sale inside
// one serializable transaction. Either every product's stock updates or none.
func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, []domain.StockChange, error) {
	if len(sale.Items) == 0 {
		return nil, nil, store.ErrInvalid
	}
	for _, item := range sale.Items {
		if item.Quantity < 1 || item.UnitPrice.IsNegative() {
			return nil, nil, store.ErrInvalid
		}
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	productIDs := uniqueProductIDs(sale.Items)
	qtyByProduct := make(map[string]int, len(productIDs))
	for _, item := range sale.Items {
		qtyByProduct[item.ProductID] += item.Quantity
	}

	stockByProduct, minByProduct, err := lockInventory(ctx, pgTx, productIDs)
	if err != nil {
		return nil, nil, mapTxError(err)
	}

	// All-or-nothing validation: every line is checked before any mutation.
	for _, productID := range productIDs {
		stock, ok := stockByProduct[productID]
		if !ok {
			return nil, nil, &store.InventoryNotFoundError{ProductID: productID}
		}
		if qtyByProduct[productID] > stock {
			return nil, nil, &store.InsufficientStockError{
				ProductID: productID,
				Requested: qtyByProduct[productID],
				Available: stock,
			}
		}
	}

	changes := make([]domain.StockChange, 0, len(productIDs))
	for _, productID := range productIDs {
		newStock, err := adjustStock(ctx, pgTx, productID, -qtyByProduct[productID])
		if err != nil {
			return nil, nil, mapTxError(err)
		}
		changes = append(changes, domain.StockChange{
			ProductID: productID,
			NewStock:  newStock,
			MinStock:  minByProduct[productID],
			Reason:    domain.StockReasonSale,
		})
	}

	shippingCost := decimal.Zero
	if sale.ShippingID != "" {
		err := pgTx.QueryRowContext(ctx, `
			SELECT cost FROM shipping_methods WHERE id = $1 AND active = true
		`, sale.ShippingID).Scan(&shippingCost)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, store.ErrNotFound
			}
			return nil, nil, mapTxError(err)
		}
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
		sale.SaleDate = time.Now().UTC()
	}
	sale.State = domain.SaleStateFinished
	sale.ShippingCost = shippingCost
	sale.Total = total
	sale.Items = items

	err = pgTx.QueryRowContext(ctx, `
		INSERT INTO sales (id, correlative_number, customer_id, shipping_id, shipping_cost, state, total, sale_date)
		VALUES ($1, 'SALE-' || nextval('sale_correlative_seq'), $2, $3, $4, $5, $6, $7)
		RETURNING correlative_number
	`, sale.ID, nullIfEmpty(sale.CustomerID), nullIfEmpty(sale.ShippingID), sale.ShippingCost, sale.State, sale.Total, sale.SaleDate).
		Scan(&sale.CorrelativeNumber)
	if err != nil {
		return nil, nil, mapTxError(err)
	}

	for _, item := range sale.Items {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, subtotal)
			VALUES ($1,$2,$3,$4,$5)
		`, sale.ID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal)
		if err != nil {
			return nil, nil, mapTxError(err)
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, nil, mapTxError(err)
	}

	return &sale, changes, nil
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := s.scanSale(ctx, s.db.QueryRowContext(ctx, `
		SELECT id, correlative_number, COALESCE(customer_id, ''), COALESCE(shipping_id, ''), shipping_cost, state, total, sale_date
		FROM sales
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, err
	}

	items, err := s.loadSaleItems(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

func (s *Store) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, correlative_number, COALESCE(customer_id, ''), COALESCE(shipping_id, ''), shipping_cost, state, total, sale_date
		FROM sales
		ORDER BY sale_date DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, limit)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.CorrelativeNumber, &sale.CustomerID, &sale.ShippingID, &sale.ShippingCost, &sale.State, &sale.Total, &sale.SaleDate); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sales {
		items, err := s.loadSaleItems(ctx, sales[i].ID)
		if err != nil {
			return nil, err
		}
		sales[i].Items = items
	}
	return sales, nil
}

// CancelSale restores the stock a finished sale had decremented and marks
// the sale canceled, all inside one transaction.
func (s *Store) CancelSale(ctx context.Context, id string) (*domain.Sale, []domain.StockChange, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	sale, err := s.scanSale(ctx, pgTx.QueryRowContext(ctx, `
		SELECT id, correlative_number, COALESCE(customer_id, ''), COALESCE(shipping_id, ''), shipping_cost, state, total, sale_date
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return nil, nil, err
	}
	if sale.State != domain.SaleStateFinished {
		return nil, nil, store.ErrInvalid
	}

	items, err := loadSaleItemsTx(ctx, pgTx, id)
	if err != nil {
		return nil, nil, err
	}
	sale.Items = items

	qtyByProduct := make(map[string]int, len(items))
	for _, item := range items {
		qtyByProduct[item.ProductID] += item.Quantity
	}

	changes := make([]domain.StockChange, 0, len(qtyByProduct))
	for _, productID := range sortedKeys(qtyByProduct) {
		newStock, minStock, err := adjustStockWithMin(ctx, pgTx, productID, qtyByProduct[productID])
		if err != nil {
			return nil, nil, mapTxError(err)
		}
		changes = append(changes, domain.StockChange{
			ProductID: productID,
			NewStock:  newStock,
			MinStock:  minStock,
			Reason:    domain.StockReasonSaleCanceled,
		})
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE sales SET state = $2 WHERE id = $1 AND state = $3
	`, id, domain.SaleStateCanceled, domain.SaleStateFinished)
	if err != nil {
		return nil, nil, mapTxError(err)
	}

	if err := pgTx.Commit(); err != nil {
		return nil, nil, mapTxError(err)
	}

	sale.State = domain.SaleStateCanceled
	return sale, changes, nil
}

// CreatePurchase increments stock for every line and persists the purchase
// inside one transaction. Line subtotals come from the product's purchase
// price; total adds the purchase tax.
func (s *Store) CreatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, []domain.StockChange, error) {
	if purchase.SupplierID == "" || len(purchase.Items) == 0 {
		return nil, nil, store.ErrInvalid
	}
	if purchase.Tax.IsNegative() {
		return nil, nil, store.ErrInvalid
	}
	for _, item := range purchase.Items {
		if item.Quantity < 1 {
			return nil, nil, store.ErrInvalid
		}
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	productIDs := make([]string, 0, len(purchase.Items))
	qtyByProduct := make(map[string]int, len(purchase.Items))
	for _, item := range purchase.Items {
		if _, seen := qtyByProduct[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		qtyByProduct[item.ProductID] += item.Quantity
	}

	priceByProduct := make(map[string]decimal.Decimal, len(productIDs))
	priceRows, err := pgTx.QueryContext(ctx, `
		SELECT id, purchase_price FROM products WHERE id = ANY($1)
	`, productIDs)
	if err != nil {
		return nil, nil, mapTxError(err)
	}
	for priceRows.Next() {
		var productID string
		var price decimal.Decimal
		if err := priceRows.Scan(&productID, &price); err != nil {
			_ = priceRows.Close()
			return nil, nil, err
		}
		priceByProduct[productID] = price
	}
	if err := priceRows.Err(); err != nil {
		_ = priceRows.Close()
		return nil, nil, err
	}
	_ = priceRows.Close()

	stockByProduct, minByProduct, err := lockInventory(ctx, pgTx, productIDs)
	if err != nil {
		return nil, nil, mapTxError(err)
	}
	for _, productID := range productIDs {
		if _, ok := priceByProduct[productID]; !ok {
			return nil, nil, store.ErrNotFound
		}
		if _, ok := stockByProduct[productID]; !ok {
			return nil, nil, &store.InventoryNotFoundError{ProductID: productID}
		}
	}

	changes := make([]domain.StockChange, 0, len(productIDs))
	for _, productID := range productIDs {
		newStock, err := adjustStock(ctx, pgTx, productID, qtyByProduct[productID])
		if err != nil {
			return nil, nil, mapTxError(err)
		}
		changes = append(changes, domain.StockChange{
			ProductID: productID,
			NewStock:  newStock,
			MinStock:  minByProduct[productID],
			Reason:    domain.StockReasonPurchase,
		})
	}

	total := decimal.Zero
	items := make([]domain.PurchaseItem, 0, len(purchase.Items))
	for _, item := range purchase.Items {
		item.Subtotal = priceByProduct[item.ProductID].Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(item.Subtotal)
		items = append(items, item)
	}
	total = total.Add(purchase.Tax)

	if purchase.ID == "" {
		purchase.ID = xid.New("purch")
	}
	if purchase.PurchaseDate.IsZero() {
		purchase.PurchaseDate = time.Now().UTC()
	}
	purchase.State = domain.PurchaseStateFinished
	purchase.Total = total
	purchase.Items = items

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO purchases (id, supplier_id, tax, purchase_type, state, total, purchase_date, delivery_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, purchase.ID, purchase.SupplierID, purchase.Tax, nullIfEmpty(purchase.PurchaseType), purchase.State, purchase.Total, purchase.PurchaseDate, nullTime(purchase.DeliveryDate))
	if err != nil {
		return nil, nil, mapTxError(err)
	}

	for _, item := range purchase.Items {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO purchase_items (purchase_id, product_id, quantity, subtotal)
			VALUES ($1,$2,$3,$4)
		`, purchase.ID, item.ProductID, item.Quantity, item.Subtotal)
		if err != nil {
			return nil, nil, mapTxError(err)
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, nil, mapTxError(err)
	}

	return &purchase, changes, nil
}

func (s *Store) GetPurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	purchase, err := s.scanPurchase(ctx, s.db.QueryRowContext(ctx, `
		SELECT id, supplier_id, tax, COALESCE(purchase_type, ''), state, total, purchase_date, delivery_date
		FROM purchases
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, err
	}

	items, err := s.loadPurchaseItems(ctx, purchase.ID)
	if err != nil {
		return nil, err
	}
	purchase.Items = items
	return purchase, nil
}

func (s *Store) ListPurchases(ctx context.Context, limit int) ([]domain.Purchase, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, supplier_id, tax, COALESCE(purchase_type, ''), state, total, purchase_date, delivery_date
		FROM purchases
		ORDER BY purchase_date DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]domain.Purchase, 0, limit)
	for rows.Next() {
		var purchase domain.Purchase
		var delivery sql.NullTime
		if err := rows.Scan(&purchase.ID, &purchase.SupplierID, &purchase.Tax, &purchase.PurchaseType, &purchase.State, &purchase.Total, &purchase.PurchaseDate, &delivery); err != nil {
			return nil, err
		}
		if delivery.Valid {
			d := delivery.Time.UTC()
			purchase.DeliveryDate = &d
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range purchases {
		items, err := s.loadPurchaseItems(ctx, purchases[i].ID)
		if err != nil {
			return nil, err
		}
		purchases[i].Items = items
	}
	return purchases, nil
}

// CancelPurchase reverses the increment of a finished purchase. A reversal
// that would drive stock negative (units already sold) fails the cancel.
func (s *Store) CancelPurchase(ctx context.Context, id string) (*domain.Purchase, []domain.StockChange, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	purchase, err := s.scanPurchase(ctx, pgTx.QueryRowContext(ctx, `
		SELECT id, supplier_id, tax, COALESCE(purchase_type, ''), state, total, purchase_date, delivery_date
		FROM purchases
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return nil, nil, err
	}
	if purchase.State != domain.PurchaseStateFinished {
		return nil, nil, store.ErrInvalid
	}

	items, err := loadPurchaseItemsTx(ctx, pgTx, id)
	if err != nil {
		return nil, nil, err
	}
	purchase.Items = items

	qtyByProduct := make(map[string]int, len(items))
	for _, item := range items {
		qtyByProduct[item.ProductID] += item.Quantity
	}
	productIDs := sortedKeys(qtyByProduct)

	stockByProduct, minByProduct, err := lockInventory(ctx, pgTx, productIDs)
	if err != nil {
		return nil, nil, mapTxError(err)
	}
	for _, productID := range productIDs {
		stock, ok := stockByProduct[productID]
		if !ok {
			return nil, nil, &store.InventoryNotFoundError{ProductID: productID}
		}
		if stock < qtyByProduct[productID] {
			return nil, nil, &store.InsufficientStockError{
				ProductID: productID,
				Requested: qtyByProduct[productID],
				Available: stock,
			}
		}
	}

	changes := make([]domain.StockChange, 0, len(productIDs))
	for _, productID := range productIDs {
		newStock, err := adjustStock(ctx, pgTx, productID, -qtyByProduct[productID])
		if err != nil {
			return nil, nil, mapTxError(err)
		}
		changes = append(changes, domain.StockChange{
			ProductID: productID,
			NewStock:  newStock,
			MinStock:  minByProduct[productID],
			Reason:    domain.StockReasonPurchaseCancel,
		})
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE purchases SET state = $2 WHERE id = $1 AND state = $3
	`, id, domain.PurchaseStateCanceled, domain.PurchaseStateFinished)
	if err != nil {
		return nil, nil, mapTxError(err)
	}

	if err := pgTx.Commit(); err != nil {
		return nil, nil, mapTxError(err)
	}

	purchase.State = domain.PurchaseStateCanceled
	return purchase, changes, nil
}

func (s *Store) CreateReturn(ctx context.Context, ret domain.Return) (*domain.Return, error) {
	if ret.SaleID == "" || ret.ProductID == "" || ret.Quantity < 1 {
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

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var saleState string
	err = pgTx.QueryRowContext(ctx, `
		SELECT state FROM sales WHERE id = $1 FOR UPDATE
	`, ret.SaleID).Scan(&saleState)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if saleState != domain.SaleStateFinished {
		return nil, store.ErrInvalid
	}

	var soldQty int
	err = pgTx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM sale_items
		WHERE sale_id = $1 AND product_id = $2
	`, ret.SaleID, ret.ProductID).Scan(&soldQty)
	if err != nil {
		return nil, err
	}
	if soldQty == 0 {
		return nil, store.ErrNotFound
	}

	var returnedQty int
	err = pgTx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM returns
		WHERE sale_id = $1 AND product_id = $2 AND status NOT IN ($3, $4)
	`, ret.SaleID, ret.ProductID, domain.ReturnStatusCancelled, domain.ReturnStatusRejected).Scan(&returnedQty)
	if err != nil {
		return nil, err
	}
	if ret.Quantity > soldQty-returnedQty {
		return nil, store.ErrInvalid
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO returns (id, sale_id, product_id, quantity, status, stock_reversed, reason, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, ret.ID, ret.SaleID, ret.ProductID, ret.Quantity, ret.Status, ret.StockReversed, nullIfEmpty(ret.Reason), ret.CreatedAt, ret.UpdatedAt)
	if err != nil {
		return nil, mapTxError(err)
	}

	if err := pgTx.Commit(); err != nil {
		return nil, mapTxError(err)
	}

	created := ret
	return &created, nil
}

func (s *Store) GetReturn(ctx context.Context, id string) (*domain.Return, error) {
	var ret domain.Return
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sale_id, product_id, quantity, status, stock_reversed, COALESCE(reason, ''), created_at, updated_at
		FROM returns
		WHERE id = $1
	`, id).Scan(&ret.ID, &ret.SaleID, &ret.ProductID, &ret.Quantity, &ret.Status, &ret.StockReversed, &ret.Reason, &ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &ret, nil
}

func (s *Store) ListReturns(ctx context.Context, limit int) ([]domain.Return, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_id, product_id, quantity, status, stock_reversed, COALESCE(reason, ''), created_at, updated_at
		FROM returns
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	returns := make([]domain.Return, 0, limit)
	for rows.Next() {
		var ret domain.Return
		if err := rows.Scan(&ret.ID, &ret.SaleID, &ret.ProductID, &ret.Quantity, &ret.Status, &ret.StockReversed, &ret.Reason, &ret.CreatedAt, &ret.UpdatedAt); err != nil {
			return nil, err
		}
		returns = append(returns, ret)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return returns, nil
}

// TransitionReturn moves a return through its state machine under a row
// lock. Entering completed flips stock_reversed in the same guarded update
// that changes the status, so the reversal can fire at most once even if
// the completion is retried concurrently.
func (s *Store) TransitionReturn(ctx context.Context, id string, next string) (*domain.Return, []domain.StockChange, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var ret domain.Return
	err = pgTx.QueryRowContext(ctx, `
		SELECT id, sale_id, product_id, quantity, status, stock_reversed, COALESCE(reason, ''), created_at, updated_at
		FROM returns
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&ret.ID, &ret.SaleID, &ret.ProductID, &ret.Quantity, &ret.Status, &ret.StockReversed, &ret.Reason, &ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, store.ErrNotFound
		}
		return nil, nil, err
	}

	if !domain.IsValidReturnTransition(ret.Status, next) {
		return nil, nil, store.ErrInvalid
	}

	now := time.Now().UTC()
	var changes []domain.StockChange

	if next == domain.ReturnStatusCompleted {
		res, err := pgTx.ExecContext(ctx, `
			UPDATE returns
			SET status = $2, stock_reversed = true, updated_at = $3
			WHERE id = $1 AND status = $4 AND NOT stock_reversed
		`, id, next, now, domain.ReturnStatusProcessed)
		if err != nil {
			return nil, nil, mapTxError(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, nil, err
		}
		if affected == 0 {
			return nil, nil, store.ErrConflict
		}

		newStock, minStock, err := adjustStockWithMin(ctx, pgTx, ret.ProductID, ret.Quantity)
		if err != nil {
			return nil, nil, mapTxError(err)
		}
		changes = append(changes, domain.StockChange{
			ProductID: ret.ProductID,
			NewStock:  newStock,
			MinStock:  minStock,
			Reason:    domain.StockReasonReturn,
		})
		ret.StockReversed = true
	} else {
		_, err := pgTx.ExecContext(ctx, `
			UPDATE returns SET status = $2, updated_at = $3 WHERE id = $1
		`, id, next, now)
		if err != nil {
			return nil, nil, mapTxError(err)
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, nil, mapTxError(err)
	}

	ret.Status = next
	ret.UpdatedAt = now
	return &ret, changes, nil
}

func (s *Store) scanSale(_ context.Context, row *sql.Row) (*domain.Sale, error) {
	var sale domain.Sale
	err := row.Scan(&sale.ID, &sale.CorrelativeNumber, &sale.CustomerID, &sale.ShippingID, &sale.ShippingCost, &sale.State, &sale.Total, &sale.SaleDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

func (s *Store) scanPurchase(_ context.Context, row *sql.Row) (*domain.Purchase, error) {
	var purchase domain.Purchase
	var delivery sql.NullTime
	err := row.Scan(&purchase.ID, &purchase.SupplierID, &purchase.Tax, &purchase.PurchaseType, &purchase.State, &purchase.Total, &purchase.PurchaseDate, &delivery)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if delivery.Valid {
		d := delivery.Time.UTC()
		purchase.DeliveryDate = &d
	}
	return &purchase, nil
}

func (s *Store) loadSaleItems(ctx context.Context, saleID string) ([]domain.SaleItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, quantity, unit_price, subtotal
		FROM sale_items
		WHERE sale_id = $1
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSaleItems(rows)
}

func loadSaleItemsTx(ctx context.Context, tx *sql.Tx, saleID string) ([]domain.SaleItem, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, quantity, unit_price, subtotal
		FROM sale_items
		WHERE sale_id = $1
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSaleItems(rows)
}

func collectSaleItems(rows *sql.Rows) ([]domain.SaleItem, error) {
	items := make([]domain.SaleItem, 0, 8)
	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) loadPurchaseItems(ctx context.Context, purchaseID string) ([]domain.PurchaseItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, quantity, subtotal
		FROM purchase_items
		WHERE purchase_id = $1
	`, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPurchaseItems(rows)
}

func loadPurchaseItemsTx(ctx context.Context, tx *sql.Tx, purchaseID string) ([]domain.PurchaseItem, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, quantity, subtotal
		FROM purchase_items
		WHERE purchase_id = $1
	`, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPurchaseItems(rows)
}

func collectPurchaseItems(rows *sql.Rows) ([]domain.PurchaseItem, error) {
	items := make([]domain.PurchaseItem, 0, 8)
	for rows.Next() {
		var item domain.PurchaseItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// lockInventory takes FOR UPDATE row locks on the inventory records for the
// given products and returns their current stock and min-stock maps.
// Products with no inventory record are simply absent from the maps.
func lockInventory(ctx context.Context, tx *sql.Tx, productIDs []string) (map[string]int, map[string]int, error) {
	stockByProduct := make(map[string]int, len(productIDs))
	minByProduct := make(map[string]int, len(productIDs))
	if len(productIDs) == 0 {
		return stockByProduct, minByProduct, nil
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, current_stock, min_stock
		FROM inventory
		WHERE product_id = ANY($1)
		FOR UPDATE
	`, productIDs)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var productID string
		var stock int
		var minStock int
		if err := rows.Scan(&productID, &stock, &minStock); err != nil {
			return nil, nil, err
		}
		stockByProduct[productID] = stock
		minByProduct[productID] = minStock
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return stockByProduct, minByProduct, nil
}

func adjustStock(ctx context.Context, tx *sql.Tx, productID string, delta int) (int, error) {
	var newStock int
	err := tx.QueryRowContext(ctx, `
		UPDATE inventory
		SET current_stock = current_stock + $2, updated_at = now()
		WHERE product_id = $1
		RETURNING current_stock
	`, productID, delta).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, &store.InventoryNotFoundError{ProductID: productID}
		}
		return 0, err
	}
	return newStock, nil
}

func adjustStockWithMin(ctx context.Context, tx *sql.Tx, productID string, delta int) (int, int, error) {
	var newStock int
	var minStock int
	err := tx.QueryRowContext(ctx, `
		UPDATE inventory
		SET current_stock = current_stock + $2, updated_at = now()
		WHERE product_id = $1
		RETURNING current_stock, min_stock
	`, productID, delta).Scan(&newStock, &minStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, &store.InventoryNotFoundError{ProductID: productID}
		}
		return 0, 0, err
	}
	return newStock, minStock, nil
}

func uniqueProductIDs(items []domain.SaleItem) []string {
	seen := make(map[string]bool, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" || seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true
		ids = append(ids, item.ProductID)
	}
	return ids
}

// sortedKeys orders products before locking so concurrent reversals touch
// rows in a stable order.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// mapTxError folds postgres concurrency failures into the store error
// taxonomy: serialization failures and deadlocks become ErrConflict so the
// engine can retry, and the inventory non-negativity CHECK becomes a
// conflict too (a concurrent writer consumed the stock first).
func mapTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return store.ErrConflict
		case "23514":
			if strings.Contains(pgErr.ConstraintName, "current_stock") {
				return store.ErrConflict
			}
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
