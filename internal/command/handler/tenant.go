package command

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"text/tabwriter"

	"salesdesk/internal/core"
	cpmodel "salesdesk/internal/database/controlplane/model"
	"salesdesk/internal/database/migrate"
	"salesdesk/internal/database/routing"
	"salesdesk/internal/dto"
	"salesdesk/internal/service"
	"salesdesk/internal/tenancy"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// 同時 migrate 的租戶數上限
const defaultMigrateConcurrency = 4

type TenantHandler struct {
	logger           *zap.Logger
	router           *routing.Router
	runner           *migrate.Runner
	tenantService    *service.TenantService
	provisionService *service.ProvisionService
}

func NewTenantHandler(
	logger *zap.Logger,
	router *routing.Router,
	runner *migrate.Runner,
	tenantService *service.TenantService,
	provisionService *service.ProvisionService,
) *TenantHandler {
	return &TenantHandler{
		logger:           logger,
		router:           router,
		runner:           runner,
		tenantService:    tenantService,
		provisionService: provisionService,
	}
}

// Create app tenant create <name> <subdomain> --admin-email ...
func (handler *TenantHandler) Create(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	adminEmail, _ := flags.GetString("admin-email")
	engine, _ := flags.GetString("engine")
	databaseURL, _ := flags.GetString("database-url")
	deferProvisioning, _ := flags.GetBool("defer")

	input := &dto.CreateTenantDto{
		Name:              args[0],
		Subdomain:         args[1],
		AdminEmail:        adminEmail,
		DatabaseEngine:    engine,
		DatabaseURL:       databaseURL,
		DeferProvisioning: deferProvisioning,
	}
	if flags.Changed("max-users") {
		maxUsers, _ := flags.GetInt("max-users")
		input.MaxUsers = &maxUsers
	}
	if flags.Changed("multi-location") {
		multiLocation, _ := flags.GetBool("multi-location")
		input.SupportsMultiLocation = &multiLocation
	}

	created, err := handler.tenantService.Create(cmd.Context(), input)
	if err != nil {
		return err
	}
	tenant := created.Tenant
	cmd.Printf("tenant %s created (%s)\n", tenant.Subdomain, tenant.ID)
	cmd.Printf("  url:      %s\n", tenant.URL)
	cmd.Printf("  database: %s\n", tenant.DatabaseTarget)
	cmd.Printf("  status:   %s\n", tenant.ProvisionStatus)
	if created.Provision != nil && created.Provision.AdminPassword != "" {
		cmd.Printf("  admin:    %s / %s (must change on first login)\n",
			created.Provision.AdminUsername, created.Provision.AdminPassword)
	}
	return nil
}

func (handler *TenantHandler) List(cmd *cobra.Command, args []string) error {
	activeOnly, _ := cmd.Flags().GetBool("active")
	tenants, err := handler.tenantService.List(cmd.Context(), activeOnly)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tSUBDOMAIN\tNAME\tENGINE\tACTIVE\tSTATUS")
	for _, tenant := range tenants {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%t\t%s\n",
			tenant.ID, tenant.Subdomain, tenant.Name, tenant.DatabaseEngine, tenant.IsActive, tenant.ProvisionStatus)
	}
	return writer.Flush()
}

func (handler *TenantHandler) Delete(cmd *cobra.Command, args []string) error {
	keepDatabase, _ := cmd.Flags().GetBool("keep-database")
	tenant, err := handler.lookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	deleted, err := handler.tenantService.Delete(cmd.Context(), tenant.ID, keepDatabase)
	if err != nil {
		return err
	}
	cmd.Printf("tenant %s deleted (pool evicted: %t, database dropped: %t)\n",
		tenant.Subdomain, deleted.PoolEvicted, deleted.DatabaseDropped)
	if deleted.DropError != "" {
		cmd.Printf("  database drop failed: %s\n", deleted.DropError)
	}
	return nil
}

func (handler *TenantHandler) Provision(cmd *cobra.Command, args []string) error {
	tenant, err := handler.lookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	result, err := handler.provisionService.Provision(cmd.Context(), tenant)
	if err != nil {
		return err
	}
	cmd.Printf("tenant %s provisioned (database created: %t, migrations applied: %d)\n",
		tenant.Subdomain, result.DatabaseCreated, result.MigrationsApplied)
	if result.AdminPassword != "" {
		cmd.Printf("  admin: %s / %s (must change on first login)\n", result.AdminUsername, result.AdminPassword)
	}
	return nil
}

// Migrate 單一租戶（--tenant）或所有啟用中的租戶；每個租戶在自己的 context 下執行
func (handler *TenantHandler) Migrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	subdomain, _ := cmd.Flags().GetString("tenant")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency <= 0 {
		concurrency = defaultMigrateConcurrency
	}

	var tenants []*cpmodel.Tenant
	if subdomain != "" {
		tenant, err := handler.lookup(ctx, subdomain)
		if err != nil {
			return err
		}
		tenants = append(tenants, tenant)
	} else {
		all, err := handler.tenantService.List(ctx, true)
		if err != nil {
			return err
		}
		for _, tenant := range all {
			if tenant.IsProvisioned() {
				tenants = append(tenants, tenant)
			}
		}
	}

	var (
		mu     sync.Mutex
		failed []string
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for _, tenant := range tenants {
		group.Go(func() error {
			applied, err := handler.migrateTenant(groupCtx, tenant)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, tenant.Subdomain)
				cmd.Printf("%-20s failed: %v\n", tenant.Subdomain, err)
				return nil
			}
			cmd.Printf("%-20s applied %d migration(s)\n", tenant.Subdomain, applied)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if len(failed) > 0 {
		return fmt.Errorf("migrate failed for %d tenant(s): %s", len(failed), strings.Join(failed, ", "))
	}
	cmd.Printf("migrated %d tenant(s)\n", len(tenants))
	return nil
}

func (handler *TenantHandler) migrateTenant(ctx context.Context, tenant *cpmodel.Tenant) (int, error) {
	ctx = tenancy.WithTenant(ctx, tenant)
	handle, err := handler.router.For(ctx, core.EntityUser)
	if err != nil {
		return 0, err
	}
	applied, err := handler.runner.Up(ctx, handle)
	if err != nil {
		handler.logger.Error("tenant migrate failed",
			zap.String("tenant_id", tenant.ID),
			zap.String("subdomain", tenant.Subdomain),
			zap.Error(err))
	}
	return applied, err
}

type tenantURL struct {
	Subdomain string `yaml:"subdomain"`
	URL       string `yaml:"url"`
	Database  string `yaml:"database"`
	Status    string `yaml:"status"`
}

// URLs 列出租戶網址與連線位址（密碼已遮蔽）
func (handler *TenantHandler) URLs(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	tenants, err := handler.tenantService.List(cmd.Context(), false)
	if err != nil {
		return err
	}

	rows := make([]tenantURL, 0, len(tenants))
	for _, tenant := range tenants {
		rows = append(rows, tenantURL{
			Subdomain: tenant.Subdomain,
			URL:       handler.tenantService.PublicURL(tenant),
			Database:  handler.tenantService.DatabaseTarget(tenant),
			Status:    string(tenant.ProvisionStatus),
		})
	}

	switch format {
	case "yaml":
		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent(2)
		if err := encoder.Encode(map[string][]tenantURL{"tenants": rows}); err != nil {
			return err
		}
		return encoder.Close()
	case "", "table":
		writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(writer, "SUBDOMAIN\tURL\tDATABASE\tSTATUS")
		for _, row := range rows {
			fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", row.Subdomain, row.URL, row.Database, row.Status)
		}
		return writer.Flush()
	default:
		return fmt.Errorf("unknown format %q (table|yaml)", format)
	}
}

// lookup 接受 id 或子網域
func (handler *TenantHandler) lookup(ctx context.Context, key string) (*cpmodel.Tenant, error) {
	if tenant, err := handler.tenantService.Get(ctx, key); err == nil {
		return tenant, nil
	}
	tenants, err := handler.tenantService.List(ctx, false)
	if err != nil {
		return nil, err
	}
	subdomain := tenancy.NormalizeSubdomain(key)
	for _, tenant := range tenants {
		if tenant.Subdomain == subdomain {
			return tenant, nil
		}
	}
	return nil, fmt.Errorf("tenant %q not found", key)
}
