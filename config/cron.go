package config

type Cron struct {
	// robfig/cron（含秒）格式
	PoolSweepSpec string `mapstructure:"POOL_SWEEP_SPEC" json:"poolSweepSpec" yaml:"poolSweepSpec"`
	// 是否自動重試 provision 失敗的租戶
	RetryProvision     bool   `mapstructure:"RETRY_PROVISION" json:"retryProvision" yaml:"retryProvision"`
	RetryProvisionSpec string `mapstructure:"RETRY_PROVISION_SPEC" json:"retryProvisionSpec" yaml:"retryProvisionSpec"`
}
