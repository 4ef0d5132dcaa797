package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/reqvest/internal/config"
)

// ApplicationName is reported to the server for every connection.
const ApplicationName = "reqvest"

// BuildConnString builds a PostgreSQL connection URL from config.
// A configured URL is returned unchanged.
func BuildConnString(cfg config.DBConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", ApplicationName)

	// url.UserPassword escapes special characters in the password
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}
