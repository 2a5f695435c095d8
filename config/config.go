package config

type Configuration struct {
	App       App             `mapstructure:"APP" json:"app" yaml:"app"`
	Redis     Redis           `mapstructure:"REDIS" json:"redis" yaml:"redis"`
	Log       Log             `mapstructure:"LOG" json:"log" yaml:"log"`
	Database  Database        `mapstructure:"DATABASE" json:"database" yaml:"database"`
	Tenant    Tenant          `mapstructure:"TENANT" json:"tenant" yaml:"tenant"`
	MongoDB   MongoDB         `mapstructure:"MONGODB" json:"mongodb" yaml:"mongodb"`
	Telemetry TelemetryConfig `mapstructure:"TELEMETRY" yaml:"telemetry"`
	Fluentd   Fluentd         `mapstructure:"FLUENTD" yaml:"fluentd"`
	Cron      Cron            `mapstructure:"CRON" json:"cron" yaml:"cron"`
}

var defaultReservedSubdomains = []string{"www", "admin", "api", "mail", "ftp", "localhost"}

var defaultPublicPaths = []string{"/", "/favicon.ico", "/static/*", "/health/*", "/metrics", "/version", "/swagger/*"}

// ApplyDefaults 補上未設定的欄位，空環境也能以 sqlite 單機啟動
func (c *Configuration) ApplyDefaults() *Configuration {
	if c.App.Name == "" {
		c.App.Name = "salesdesk"
	}
	if c.App.Port == 0 {
		c.App.Port = 3000
	}
	if c.App.PublicScheme == "" {
		c.App.PublicScheme = "http"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Tenant.DataRoot == "" {
		c.Tenant.DataRoot = "data/tenant_dbs"
	}
	if c.Database.URL == "" {
		c.Database.URL = "sqlite:///data/controlplane.sqlite3"
	}
	if c.Tenant.DatabasePrefix == "" {
		c.Tenant.DatabasePrefix = "sales"
	}
	if len(c.Tenant.ReservedSubdomains) == 0 {
		c.Tenant.ReservedSubdomains = append([]string(nil), defaultReservedSubdomains...)
	}
	if c.Tenant.ControlPlaneLabel == "" {
		c.Tenant.ControlPlaneLabel = "admin"
	}
	if len(c.Tenant.PublicPaths) == 0 {
		c.Tenant.PublicPaths = append([]string(nil), defaultPublicPaths...)
	}
	if c.Tenant.ProvisionLockTTL <= 0 {
		c.Tenant.ProvisionLockTTL = 300
	}
	if c.Tenant.ConnectRetries == 0 {
		c.Tenant.ConnectRetries = 3
	}
	if c.Tenant.ConnectTimeout <= 0 {
		c.Tenant.ConnectTimeout = 5000
	}
	if c.Tenant.Defaults.Engine == "" {
		c.Tenant.Defaults.Engine = "sqlite"
	}
	if c.Tenant.Defaults.Host == "" {
		c.Tenant.Defaults.Host = "localhost"
	}
	if c.Tenant.Defaults.MaxOpenConns == 0 {
		c.Tenant.Defaults.MaxOpenConns = 10
	}
	if c.Tenant.Defaults.MaxIdleConns == 0 {
		c.Tenant.Defaults.MaxIdleConns = 2
	}
	if c.Tenant.Defaults.ConnMaxLifetime == 0 {
		c.Tenant.Defaults.ConnMaxLifetime = 600
	}
	if c.Tenant.Seed.AdminUsername == "" {
		c.Tenant.Seed.AdminUsername = "admin"
	}
	if c.Cron.PoolSweepSpec == "" {
		c.Cron.PoolSweepSpec = "0 */5 * * * *"
	}
	if c.Cron.RetryProvisionSpec == "" {
		c.Cron.RetryProvisionSpec = "0 */10 * * * *"
	}
	return c
}
