package repository

import (
	"context"
	"time"

	"salesdesk/internal/core"
	"salesdesk/internal/database/routing"
	"salesdesk/internal/database/sqldb"
	"salesdesk/internal/database/tenantdb/model"
	"salesdesk/internal/telemetry"
)

type SaleRepository struct {
	trace *telemetry.Trace
}

func NewSaleRepository(trace *telemetry.Trace) *SaleRepository {
	return &SaleRepository{trace: trace}
}

// Create total 與 balance 由單價、數量與已付金額計算
func (repository *SaleRepository) Create(contextValue context.Context, handle *routing.Handle, sale *model.Sale) (_ *model.Sale, returnedError error) {
	if returnedError = handle.Check(core.EntitySale); returnedError != nil {
		return nil, returnedError
	}
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()
	repository.trace.ApplyTraceAttributes(span, core.TraceBusinessRepoMeta{Op: "create", Entity: string(core.EntitySale), TenantID: handle.Tenant.ID})

	if sale.ID == "" {
		sale.ID = sqldb.NewID()
	}
	if sale.SaleDate.IsZero() {
		sale.SaleDate = sqldb.Now()
	}
	sale.ComputeTotals()
	_, returnedError = handle.DB.ExecContext(contextValue, handle.Rebind("INSERT INTO sales ("+model.SaleColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		sale.ID, sale.CashierID, sale.JobType, sale.UnitPriceCents, sale.Quantity,
		sale.TotalCents, sale.AmountPaidCents, sale.BalanceCents, sale.SaleDate)
	if returnedError != nil {
		return nil, returnedError
	}
	return sale, nil
}

// List 新到舊；from/to 為零值時不限制
func (repository *SaleRepository) List(contextValue context.Context, handle *routing.Handle, from, to time.Time, limit int) (_ []*model.Sale, returnedError error) {
	if returnedError = handle.Check(core.EntitySale); returnedError != nil {
		return nil, returnedError
	}
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	where, args := saleRange(from, to)
	query := "SELECT " + model.SaleColumns + " FROM sales" + where + " ORDER BY sale_date DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, queryError := handle.DB.QueryContext(contextValue, handle.Rebind(query), args...)
	if queryError != nil {
		return nil, queryError
	}
	defer rows.Close()

	sales := []*model.Sale{}
	for rows.Next() {
		sale, scanError := scanSale(rows)
		if scanError != nil {
			return nil, scanError
		}
		sales = append(sales, sale)
	}
	if rowsError := rows.Err(); rowsError != nil {
		return nil, rowsError
	}
	repository.trace.ApplyTraceAttributes(span, core.TraceBusinessRepoMeta{Op: "list", Entity: string(core.EntitySale), TenantID: handle.Tenant.ID, Count: len(sales)})
	return sales, nil
}

func (repository *SaleRepository) GetByID(contextValue context.Context, handle *routing.Handle, saleID string) (_ *model.Sale, returnedError error) {
	if returnedError = handle.Check(core.EntitySale); returnedError != nil {
		return nil, returnedError
	}
	row := handle.DB.QueryRowContext(contextValue, handle.Rebind("SELECT "+model.SaleColumns+" FROM sales WHERE id = ?"), saleID)
	sale, err := scanSale(row)
	if err != nil {
		return nil, notFound(err)
	}
	return sale, nil
}

// Summary 區間內筆數與金額合計
func (repository *SaleRepository) Summary(contextValue context.Context, handle *routing.Handle, from, to time.Time) (_ *model.SalesSummary, returnedError error) {
	if returnedError = handle.Check(core.EntitySale); returnedError != nil {
		return nil, returnedError
	}
	where, args := saleRange(from, to)
	var summary model.SalesSummary
	returnedError = handle.DB.QueryRowContext(contextValue, handle.Rebind(
		"SELECT COUNT(*), COALESCE(SUM(total_cents), 0), COALESCE(SUM(amount_paid_cents), 0), COALESCE(SUM(balance_cents), 0) FROM sales"+where), args...).
		Scan(&summary.Count, &summary.TotalCents, &summary.PaidCents, &summary.BalanceCents)
	if returnedError != nil {
		return nil, returnedError
	}
	return &summary, nil
}

func saleRange(from, to time.Time) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if !from.IsZero() {
		clauses = append(clauses, "sale_date >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		clauses = append(clauses, "sale_date < ?")
		args = append(args, to.UTC())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

func scanSale(row rowScanner) (*model.Sale, error) {
	var sale model.Sale
	if err := row.Scan(&sale.ID, &sale.CashierID, &sale.JobType, &sale.UnitPriceCents, &sale.Quantity,
		&sale.TotalCents, &sale.AmountPaidCents, &sale.BalanceCents, &sale.SaleDate); err != nil {
		return nil, err
	}
	sale.SaleDate = sale.SaleDate.UTC()
	return &sale, nil
}
