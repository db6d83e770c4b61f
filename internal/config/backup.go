package config

// BackupConfig describes one source file and the target directory
// its staggered backups are written to.
type BackupConfig struct {
	Source string     `mapstructure:"source" yaml:"source"`
	Target string     `mapstructure:"target" yaml:"target"`
	Keep   KeepConfig `mapstructure:"keep"   yaml:"keep"`

	// Agent mode only: cron schedule and/or source file watching.
	Schedule      string `mapstructure:"schedule"       yaml:"schedule"`
	Watch         bool   `mapstructure:"watch"          yaml:"watch"`
	WatchDebounce string `mapstructure:"watch_debounce" yaml:"watch_debounce"`
}

// KeepConfig holds the retention quotas. A quota of 0 disables its tier.
type KeepConfig struct {
	Yearly  uint `mapstructure:"yearly"  yaml:"yearly"`
	Monthly uint `mapstructure:"monthly" yaml:"monthly"`
	Daily   uint `mapstructure:"daily"   yaml:"daily"`
	Latest  uint `mapstructure:"latest"  yaml:"latest"`
}
