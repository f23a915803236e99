package client

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

type Database struct {
	Username        string
	Password        string
	Host            string
	Port            uint32
	Name            string
	TracingEnabled  bool
	MaxOpenConns    uint32
	MaxIdleConns    uint32
	ConnMaxLifeTime uint32
}

func ReadConfig() *Database {
	return &Database{
		Username:        viper.GetString("db.user"),
		Password:        viper.GetString("db.password"),
		Host:            viper.GetString("db.host"),
		Port:            viper.GetUint32("db.port"),
		Name:            viper.GetString("db.name"),
		TracingEnabled:  viper.GetBool("tracing.enabled"),
		MaxOpenConns:    viper.GetUint32("db.max_open_conns"),
		MaxIdleConns:    viper.GetUint32("db.max_idle_conns"),
		ConnMaxLifeTime: viper.GetUint32("db.conn_max_life_time"),
	}
}

// NewDriver creates a driver that dials the configured MySQL server.
func NewDriver(config *Database) driver.Driver {
	return &Driver{config: config}
}

type Driver struct {
	drv    mysql.MySQLDriver
	config *Database
}

func (d *Driver) Open(_ string) (driver.Conn, error) {
	return d.drv.Open(FormatDSN(d.config))
}

// OpenConnector lets database/sql pool connections without reparsing the DSN.
func (d *Driver) OpenConnector(_ string) (driver.Connector, error) {
	return &connector{driver: d}, nil
}

type connector struct {
	driver *Driver
}

func (c *connector) Connect(_ context.Context) (driver.Conn, error) {
	return c.driver.Open("")
}

func (c *connector) Driver() driver.Driver {
	return c.driver
}

// FormatDSN builds the DSN. ClientFoundRows makes UPDATE report matched rows,
// so an update with unchanged values is not mistaken for a missing row.
func FormatDSN(config *Database) string {
	mysqlConfig := mysql.NewConfig()
	mysqlConfig.Net = "tcp"
	mysqlConfig.Addr = fmt.Sprintf("%s:%d", config.Host, config.Port)
	mysqlConfig.DBName = config.Name
	mysqlConfig.User = config.Username
	mysqlConfig.Passwd = config.Password
	mysqlConfig.AllowNativePasswords = true
	mysqlConfig.ParseTime = true
	mysqlConfig.ClientFoundRows = true
	return mysqlConfig.FormatDSN()
}
