package store

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_$]+$`)

type Options struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	Timeout  time.Duration
	// BatchSize bounds rows per INSERT statement; all batches share one transaction.
	BatchSize int
}

func (o Options) validate() error {
	if !identifierPattern.MatchString(o.Name) {
		return fmt.Errorf("invalid database name %q", o.Name)
	}
	return nil
}

func (o Options) config(withDatabase bool) *mysqldriver.Config {
	cfg := mysqldriver.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
	if withDatabase {
		cfg.DBName = o.Name
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Timeout = o.Timeout
	cfg.ReadTimeout = o.Timeout
	cfg.WriteTimeout = o.Timeout
	cfg.Params = map[string]string{"time_zone": "'+00:00'"}
	return cfg
}

// ServerDSN addresses the server without selecting a database, so the
// database itself can be created on first ingest.
func (o Options) ServerDSN() string {
	return o.config(false).FormatDSN()
}

func (o Options) DatabaseDSN() string {
	return o.config(true).FormatDSN()
}

// MigrateURL is the golang-migrate form of DatabaseDSN.
func (o Options) MigrateURL() string {
	cfg := o.config(true)
	cfg.MultiStatements = true
	return "mysql://" + cfg.FormatDSN()
}
