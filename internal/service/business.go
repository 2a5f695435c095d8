package service

import (
	"context"
	"errors"
	"time"

	"salesdesk/internal/core"
	"salesdesk/internal/database/routing"
	"salesdesk/internal/database/sqldb"
	"salesdesk/internal/database/tenantdb/model"
	"salesdesk/internal/database/tenantdb/repository"
	"salesdesk/internal/dto"
	cErr "salesdesk/internal/pkg/error"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"
)

// handleFor 取得實體對應的連線並轉成應用錯誤
func handleFor(ctx context.Context, router *routing.Router, entity core.Entity) (*routing.Handle, error) {
	handle, err := router.For(ctx, entity)
	if err != nil {
		return nil, routingError(err)
	}
	return handle, nil
}

func routingError(err error) error {
	if routing.IsViolation(err) {
		return cErr.RoutingViolation(err.Error())
	}
	return cErr.ConnectionFailure("tenant database is unreachable: " + string(sqldb.KindOf(err)))
}

// repositoryError 業務查詢錯誤；路由契約錯誤不可被降級
func repositoryError(err error, desc string) error {
	switch {
	case routing.IsViolation(err):
		return cErr.RoutingViolation(err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return cErr.NotFound(desc + ": not found")
	default:
		return cErr.DatabaseError(desc)
	}
}

type ProductService struct {
	trace       *telemetry.Trace
	router      *routing.Router
	productRepo *repository.ProductRepository
}

func NewProductService(trace *telemetry.Trace, router *routing.Router, productRepo *repository.ProductRepository) *ProductService {
	return &ProductService{trace: trace, router: router, productRepo: productRepo}
}

func (s *ProductService) Create(ctx context.Context, input *dto.CreateProductDto) (*model.Product, error) {
	handle, err := handleFor(ctx, s.router, core.EntityProduct)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.Create(ctx, handle, &model.Product{
		Name:       input.Name,
		PriceCents: input.PriceCents,
		Stock:      input.Stock,
	})
	if err != nil {
		return nil, repositoryError(err, "create product failed")
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context) ([]*model.Product, error) {
	handle, err := handleFor(ctx, s.router, core.EntityProduct)
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.List(ctx, handle)
	if err != nil {
		return nil, repositoryError(err, "list products failed")
	}
	return products, nil
}

type SaleService struct {
	trace       *telemetry.Trace
	router      *routing.Router
	saleRepo    *repository.SaleRepository
	accountRepo *repository.AccountRepository
}

func NewSaleService(
	trace *telemetry.Trace,
	router *routing.Router,
	saleRepo *repository.SaleRepository,
	accountRepo *repository.AccountRepository,
) *SaleService {
	return &SaleService{trace: trace, router: router, saleRepo: saleRepo, accountRepo: accountRepo}
}

func (s *SaleService) Create(ctx context.Context, input *dto.CreateSaleDto) (_ *model.Sale, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	handle, err := handleFor(ctx, s.router, core.EntitySale)
	if err != nil {
		return nil, err
	}
	sale := &model.Sale{
		CashierID:       input.CashierID,
		JobType:         input.JobType,
		UnitPriceCents:  input.UnitPriceCents,
		Quantity:        input.Quantity,
		AmountPaidCents: input.AmountPaidCents,
	}
	if input.SaleDate != nil {
		sale.SaleDate = input.SaleDate.UTC()
	}
	created, err := s.saleRepo.Create(ctx, handle, sale)
	if err != nil {
		return nil, repositoryError(err, "create sale failed")
	}
	return created, nil
}

// List from/to 格式 2006-01-02，to 為不含當日的上限
func (s *SaleService) List(ctx context.Context, query *dto.SaleQueryDto) ([]*model.Sale, *model.SalesSummary, error) {
	from, to, err := parseRange(query)
	if err != nil {
		return nil, nil, err
	}
	handle, err := handleFor(ctx, s.router, core.EntitySale)
	if err != nil {
		return nil, nil, err
	}
	limit := query.Limit
	if limit == 0 {
		limit = 100
	}
	sales, err := s.saleRepo.List(ctx, handle, from, to, limit)
	if err != nil {
		return nil, nil, repositoryError(err, "list sales failed")
	}
	summary, err := s.saleRepo.Summary(ctx, handle, from, to)
	if err != nil {
		return nil, nil, repositoryError(err, "summarize sales failed")
	}
	return sales, summary, nil
}

// Current 目前租戶的摘要（含帳號數）
func (s *SaleService) Current(ctx context.Context) (*dto.CurrentTenantDto, error) {
	tenant, ok := tenancy.FromContext(ctx)
	if !ok {
		return nil, cErr.TenantRequired("no tenant bound to this request")
	}
	handle, err := handleFor(ctx, s.router, core.EntityUser)
	if err != nil {
		return nil, err
	}
	users, err := s.accountRepo.CountUsers(ctx, handle)
	if err != nil {
		return nil, repositoryError(err, "count users failed")
	}
	return &dto.CurrentTenantDto{
		ID:                    tenant.ID,
		Name:                  tenant.Name,
		Subdomain:             tenant.Subdomain,
		MaxUsers:              tenant.MaxUsers,
		SupportsMultiLocation: tenant.SupportsMultiLocation,
		Users:                 users,
	}, nil
}

func parseRange(query *dto.SaleQueryDto) (from, to time.Time, err error) {
	if query.From != "" {
		if from, err = time.Parse(time.DateOnly, query.From); err != nil {
			return from, to, cErr.BadRequestParams("from must be YYYY-MM-DD")
		}
	}
	if query.To != "" {
		if to, err = time.Parse(time.DateOnly, query.To); err != nil {
			return from, to, cErr.BadRequestParams("to must be YYYY-MM-DD")
		}
	}
	return from, to, nil
}
