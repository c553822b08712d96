// internal/config/database.go
package config

import (
	"fmt"
)

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// IsConfigured reports whether enough settings are present to reach a store.
// The server still starts without them and answers 503 on license routes.
func (d *DatabaseConfig) IsConfigured() bool {
	if d.Driver == "sqlite" {
		return d.SQLitePath != ""
	}
	return d.Host != "" && d.Database != ""
}
