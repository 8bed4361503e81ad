package data

import (
	"errors"
	"os"
	"strings"
)

// ErrNoDSN is returned when MYSQL_DSN is unset; callers run without the settings table.
var ErrNoDSN = errors.New("MYSQL_DSN is not set")

// GetMySQLDSN returns the MySQL DSN configured via environment.
func GetMySQLDSN() (string, error) {
	dsn := os.Getenv("MYSQL_DSN")
	if strings.TrimSpace(dsn) == "" {
		return "", ErrNoDSN
	}
	return dsn, nil
}
