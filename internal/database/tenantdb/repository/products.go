package repository

import (
	"context"

	"salesdesk/internal/core"
	"salesdesk/internal/database/routing"
	"salesdesk/internal/database/sqldb"
	"salesdesk/internal/database/tenantdb/model"
	"salesdesk/internal/telemetry"
)

type ProductRepository struct {
	trace *telemetry.Trace
}

func NewProductRepository(trace *telemetry.Trace) *ProductRepository {
	return &ProductRepository{trace: trace}
}

func (repository *ProductRepository) Create(contextValue context.Context, handle *routing.Handle, product *model.Product) (_ *model.Product, returnedError error) {
	if returnedError = handle.Check(core.EntityProduct); returnedError != nil {
		return nil, returnedError
	}
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()
	repository.trace.ApplyTraceAttributes(span, core.TraceBusinessRepoMeta{Op: "create", Entity: string(core.EntityProduct), TenantID: handle.Tenant.ID})

	if product.ID == "" {
		product.ID = sqldb.NewID()
	}
	product.CreatedAt = sqldb.Now()
	_, returnedError = handle.DB.ExecContext(contextValue, handle.Rebind("INSERT INTO products ("+model.ProductColumns+") VALUES (?, ?, ?, ?, ?)"),
		product.ID, product.Name, product.PriceCents, product.Stock, product.CreatedAt)
	if returnedError != nil {
		return nil, returnedError
	}
	return product, nil
}

func (repository *ProductRepository) List(contextValue context.Context, handle *routing.Handle) (_ []*model.Product, returnedError error) {
	if returnedError = handle.Check(core.EntityProduct); returnedError != nil {
		return nil, returnedError
	}
	rows, queryError := handle.DB.QueryContext(contextValue, "SELECT "+model.ProductColumns+" FROM products ORDER BY name")
	if queryError != nil {
		return nil, queryError
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		var product model.Product
		if scanError := rows.Scan(&product.ID, &product.Name, &product.PriceCents, &product.Stock, &product.CreatedAt); scanError != nil {
			return nil, scanError
		}
		product.CreatedAt = product.CreatedAt.UTC()
		products = append(products, &product)
	}
	return products, rows.Err()
}

func (repository *ProductRepository) GetByID(contextValue context.Context, handle *routing.Handle, productID string) (_ *model.Product, returnedError error) {
	if returnedError = handle.Check(core.EntityProduct); returnedError != nil {
		return nil, returnedError
	}
	var product model.Product
	err := handle.DB.QueryRowContext(contextValue, handle.Rebind("SELECT "+model.ProductColumns+" FROM products WHERE id = ?"), productID).
		Scan(&product.ID, &product.Name, &product.PriceCents, &product.Stock, &product.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	product.CreatedAt = product.CreatedAt.UTC()
	return &product, nil
}
