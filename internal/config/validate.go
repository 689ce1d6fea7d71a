package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Validate checks the loaded configuration and fills derived fields.
// Load calls it automatically.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN must be set")
	}

	ids, err := ParseAdminIDs(c.Telegram.AdminIDsRaw)
	if err != nil {
		return fmt.Errorf("admin_user_ids: %w", err)
	}
	c.Telegram.AdminIDs = ids

	if err := c.Database.validate(); err != nil {
		return err
	}

	if c.Study.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.Study.BatchSize)
	}
	if c.Study.LedgerKey == "" {
		return fmt.Errorf("ledger_key must be set")
	}

	if err := c.Reminder.validate(); err != nil {
		return fmt.Errorf("reminder: %w", err)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json (got %q)", c.Log.Format)
	}

	return nil
}

func (d *DatabaseConfig) validate() error {
	switch d.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("db_driver must be sqlite3 or postgres (got %q)", d.Driver)
	}
	if d.DSN == "" {
		return fmt.Errorf("db_dsn must be set")
	}
	return nil
}

func (r *ReminderConfig) validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Interval <= 0 {
		return fmt.Errorf("interval must be > 0 (got %s)", r.Interval)
	}
	if r.StartHour < 0 || r.StartHour > 23 {
		return fmt.Errorf("start hour must be within 0..23 (got %d)", r.StartHour)
	}
	if r.EndHour < 0 || r.EndHour > 23 {
		return fmt.Errorf("end hour must be within 0..23 (got %d)", r.EndHour)
	}
	if r.StartHour > r.EndHour {
		return fmt.Errorf("start hour %d is after end hour %d", r.StartHour, r.EndHour)
	}
	return nil
}

// ParseAdminIDs parses a comma separated list of user ids. An empty string
// returns a nil slice.
func ParseAdminIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
