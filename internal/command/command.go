package command

import (
	"time"

	commandHandler "salesdesk/internal/command/handler"
	"salesdesk/internal/database/migrate"
	"salesdesk/internal/database/routing"

	"github.com/google/wire"
	"github.com/spf13/cobra"
)

var ProviderSet = wire.NewSet(NewCommand, commandHandler.NewTenantHandler, commandHandler.NewTokenHandler)

type Command struct {
	router               *routing.Router
	runner               *migrate.Runner
	tenantCommandHandler *commandHandler.TenantHandler
	tokenCommandHandler  *commandHandler.TokenHandler
}

// NewCommand .
func NewCommand(
	router *routing.Router,
	runner *migrate.Runner,
	tenantCommandHandler *commandHandler.TenantHandler,
	tokenCommandHandler *commandHandler.TokenHandler,
) *Command {
	return &Command{
		router:               router,
		runner:               runner,
		tenantCommandHandler: tenantCommandHandler,
		tokenCommandHandler:  tokenCommandHandler,
	}
}

// run 每個子命令各自建立依賴並在結束時釋放；執行前先確保控制平面 schema 為最新
func run(newCmd func() (*Command, func(), error), fn func(*Command, *cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		command, cleanup, err := newCmd()
		if err != nil {
			return err
		}
		defer cleanup()

		if _, err := command.runner.Up(cmd.Context(), command.router.ControlPlane()); err != nil {
			return err
		}
		return fn(command, cmd, args)
	}
}

func Register(rootCmd *cobra.Command, newCmd func() (*Command, func(), error)) {
	tenantCmd := &cobra.Command{
		Use:   "tenant",
		Short: "manage tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create <name> <subdomain>",
		Short: "register a tenant and provision its database",
		Args:  cobra.ExactArgs(2),
		RunE: run(newCmd, func(c *Command, cmd *cobra.Command, args []string) error {
			return c.tenantCommandHandler.Create(cmd, args)
		}),
	}
	createCmd.Flags().String("admin-email", "", "tenant administrator email")
	createCmd.Flags().String("engine", "", "database engine (sqlite|postgres|mysql)")
	createCmd.Flags().String("database-url", "", "explicit tenant database url")
	createCmd.Flags().Int("max-users", 0, "maximum users")
	createCmd.Flags().Bool("multi-location", false, "enable multiple business locations")
	createCmd.Flags().Bool("defer", false, "register only, provision later")
	_ = createCmd.MarkFlagRequired("admin-email")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list tenants",
		Args:  cobra.NoArgs,
		RunE: run(newCmd, func(c *Command, cmd *cobra.Command, args []string) error {
			return c.tenantCommandHandler.List(cmd, args)
		}),
	}
	listCmd.Flags().Bool("active", false, "only active tenants")

	deleteCmd := &cobra.Command{
		Use:   "delete <id|subdomain>",
		Short: "delete a tenant, its pool and (by default) its database",
		Args:  cobra.ExactArgs(1),
		RunE: run(newCmd, func(c *Command, cmd *cobra.Command, args []string) error {
			return c.tenantCommandHandler.Delete(cmd, args)
		}),
	}
	deleteCmd.Flags().Bool("keep-database", false, "keep the tenant database")

	provisionCmd := &cobra.Command{
		Use:   "provision <id|subdomain>",
		Short: "create database, run migrations and seed (idempotent)",
		Args:  cobra.ExactArgs(1),
		RunE: run(newCmd, func(c *Command, cmd *cobra.Command, args []string) error {
			return c.tenantCommandHandler.Provision(cmd, args)
		}),
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply pending tenant migrations",
		Args:  cobra.NoArgs,
		RunE: run(newCmd, func(c *Command, cmd *cobra.Command, args []string) error {
			return c.tenantCommandHandler.Migrate(cmd, args)
		}),
	}
	migrateCmd.Flags().String("tenant", "", "single tenant id or subdomain (default: all active tenants)")
	migrateCmd.Flags().Int("concurrency", 4, "tenants migrated in parallel")

	urlsCmd := &cobra.Command{
		Use:   "urls",
		Short: "print tenant urls and masked database targets",
		Args:  cobra.NoArgs,
		RunE: run(newCmd, func(c *Command, cmd *cobra.Command, args []string) error {
			return c.tenantCommandHandler.URLs(cmd, args)
		}),
	}
	urlsCmd.Flags().String("format", "table", "output format (table|yaml)")

	tenantCmd.AddCommand(createCmd, listCmd, deleteCmd, provisionCmd, migrateCmd, urlsCmd)

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "issue an admin API bearer token",
		Args:  cobra.NoArgs,
		RunE: run(newCmd, func(c *Command, cmd *cobra.Command, args []string) error {
			return c.tokenCommandHandler.Issue(cmd, args)
		}),
	}
	tokenCmd.Flags().String("username", "admin", "token subject")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(tenantCmd, tokenCmd)
}
