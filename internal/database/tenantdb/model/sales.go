package model

import "time"

// 金額一律以分（cents）儲存

type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"priceCents"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"createdAt"`
}

const ProductColumns = "id, name, price_cents, stock, created_at"

type Sale struct {
	ID              string    `json:"id"`
	CashierID       string    `json:"cashierId"`
	JobType         string    `json:"jobType"`
	UnitPriceCents  int64     `json:"unitPriceCents"`
	Quantity        int       `json:"quantity"`
	TotalCents      int64     `json:"totalCents"`
	AmountPaidCents int64     `json:"amountPaidCents"`
	BalanceCents    int64     `json:"balanceCents"`
	SaleDate        time.Time `json:"saleDate"`
}

const SaleColumns = "id, cashier_id, job_type, unit_price_cents, quantity, total_cents, amount_paid_cents, balance_cents, sale_date"

// ComputeTotals total = 單價 × 數量，balance = total − 已付
func (s *Sale) ComputeTotals() {
	s.TotalCents = s.UnitPriceCents * int64(s.Quantity)
	s.BalanceCents = s.TotalCents - s.AmountPaidCents
}

// SalesSummary 區間彙總
type SalesSummary struct {
	Count        int   `json:"count"`
	TotalCents   int64 `json:"totalCents"`
	PaidCents    int64 `json:"paidCents"`
	BalanceCents int64 `json:"balanceCents"`
}
