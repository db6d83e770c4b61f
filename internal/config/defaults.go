package config

import "github.com/spf13/viper"

func GetDefault() Config {
	return Config{
		ShutdownTimeout: "10s",

		Log: LogConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},

		Backup: BackupConfig{
			Source: "",
			Target: "",
			Keep: KeepConfig{
				Yearly:  2,
				Monthly: 6,
				Daily:   7,
				Latest:  3,
			},
			Schedule:      "",
			Watch:         false,
			WatchDebounce: "5s",
		},
	}
}

func setDefaults() {
	defaults := GetDefault()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("backup.source", defaults.Backup.Source)
	viper.SetDefault("backup.target", defaults.Backup.Target)
	viper.SetDefault("backup.keep.yearly", defaults.Backup.Keep.Yearly)
	viper.SetDefault("backup.keep.monthly", defaults.Backup.Keep.Monthly)
	viper.SetDefault("backup.keep.daily", defaults.Backup.Keep.Daily)
	viper.SetDefault("backup.keep.latest", defaults.Backup.Keep.Latest)
	viper.SetDefault("backup.schedule", defaults.Backup.Schedule)
	viper.SetDefault("backup.watch", defaults.Backup.Watch)
	viper.SetDefault("backup.watch_debounce", defaults.Backup.WatchDebounce)
}
