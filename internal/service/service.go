package service

import (
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	NewHealthService,
	NewAuditService,
	NewProvisionService,
	NewTenantService,
	NewPoolService,
	NewProductService,
	NewSaleService,
	NewAuthService,
)
