package dto

import "time"

type CreateProductDto struct {
	Name       string `json:"name" binding:"required,min=1,max=100"`
	PriceCents int64  `json:"priceCents" binding:"min=0"`
	Stock      int    `json:"stock" binding:"min=0"`
}

// total 與 balance 由伺服器計算
type CreateSaleDto struct {
	CashierID       string     `json:"cashierId" binding:"required"`
	JobType         string     `json:"jobType" binding:"required,max=100"`
	UnitPriceCents  int64      `json:"unitPriceCents" binding:"min=0"`
	Quantity        int        `json:"quantity" binding:"required,min=1"`
	AmountPaidCents int64      `json:"amountPaidCents" binding:"min=0"`
	SaleDate        *time.Time `json:"saleDate,omitempty"`
}

// ?from=2026-01-01&to=2026-02-01&limit=50
type SaleQueryDto struct {
	From  string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To    string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=500"`
}
