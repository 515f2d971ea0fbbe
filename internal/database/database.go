package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"estate/server/internal/models"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var _ models.Store = (*Database)(nil)

// Database is the record store behind the workflow engine. A Database
// obtained through Transaction is bound to that transaction.
type Database struct {
	db     *gorm.DB
	driver string
	logger *logrus.Logger
}

// NewDatabase opens the store for the given driver and DSN.
func NewDatabase(driver, dsn string, logger *logrus.Logger) (*Database, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(dsn))
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// One connection serializes SQLite transactions in the pool
		sqlDB.SetMaxOpenConns(1)
	}

	return &Database{db: db, driver: driver, logger: logger}, nil
}

// NewTestDatabase returns a migrated, isolated in-memory SQLite store.
func NewTestDatabase() (*Database, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	d, err := NewDatabase(DriverSQLite, dsn, logger)
	if err != nil {
		return nil, err
	}
	if err := d.RunMigrations(); err != nil {
		return nil, err
	}
	return d, nil
}

// sqliteDSN turns on foreign keys for every pooled connection.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1&_busy_timeout=5000"
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

func (d *Database) Driver() string {
	return d.driver
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) withTx(tx *gorm.DB) *Database {
	return &Database{db: tx, driver: d.driver, logger: d.logger}
}

func (d *Database) conn(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

// Transaction runs fn inside one transaction; any error rolls it back.
func (d *Database) Transaction(ctx context.Context, fn func(tx models.Store) error) error {
	return d.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(d.withTx(tx))
	})
}

// LockProperty reads a property and holds its row lock until the
// surrounding transaction ends. SQLite has no row locks; its writes are
// serialized by the single pooled connection.
func (d *Database) LockProperty(ctx context.Context, id int64) (*models.Property, error) {
	var p models.Property
	err := d.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	if err != nil {
		return nil, translateError(err, "property", id)
	}
	return &p, nil
}

// translateError maps driver and gorm errors onto the model error kinds.
func translateError(err error, entity string, id interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v: %w", entity, id, models.ErrNotFound)
	}
	if verr := constraintError(err); verr != nil {
		return verr
	}
	return err
}
