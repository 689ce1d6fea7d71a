// Package config loads the bot configuration from the environment.
package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Telegram TelegramConfig
	Database DatabaseConfig
	Study    StudyConfig
	Reminder ReminderConfig
	Log      LogConfig
}

// TelegramConfig holds bot credentials and admin access.
type TelegramConfig struct {
	Token       string `env:"TELEGRAM_BOT_TOKEN" env-required:"true"`
	// AdminIDsRaw is a comma separated list of Telegram user ids allowed to import words.
	AdminIDsRaw string `env:"ADMIN_USER_IDS"`

	// AdminIDs is filled from AdminIDsRaw by Validate.
	AdminIDs []int64
}


// DatabaseConfig selects the SQL driver and data source.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" env-default:"sqlite3"`
	DSN    string `env:"DB_DSN"    env-default:"data/vocolatin.db"`
}

// StudyConfig holds session settings.
type StudyConfig struct {
	BatchSize int    `env:"BATCH_SIZE" env-default:"10"`
	LedgerKey string `env:"LEDGER_KEY" env-default:"vocolatin_missed_words"`
}

// ReminderConfig controls the missed word reminders.
type ReminderConfig struct {
	Enabled   bool          `env:"REMINDER_ENABLED"        env-default:"true"`
	Interval  time.Duration `env:"REMINDER_INTERVAL"       env-default:"1h"`
	StartHour int           `env:"NOTIFICATION_START_HOUR" env-default:"8"`
	EndHour   int           `env:"NOTIFICATION_END_HOUR"   env-default:"22"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}
