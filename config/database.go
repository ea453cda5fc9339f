package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	db *gorm.DB
)

// GetDB returns nil when no database is configured; callers treat that as "persistence off".
func GetDB() *gorm.DB {
	return db
}

func init() {
	godotenv.Load()
}

// DatabaseDSN builds the MySQL DSN from DB_* env. ok is false when DB_HOST is unset.
// A DB_HOST of "/cloudsql/<CONNECTION_NAME>" dials the Cloud SQL unix socket.
func DatabaseDSN() (dsn string, ok bool) {
	host := strings.TrimSpace(os.Getenv("DB_HOST"))
	if host == "" {
		return "", false
	}

	network, address := "tcp", fmt.Sprintf("%s:%s", host, firstNonEmpty(os.Getenv("DB_PORT"), "3306"))
	if strings.HasPrefix(host, "/cloudsql/") {
		network, address = "unix", host
	}
	return fmt.Sprintf("%s:%s@%s(%s)/%s?parseTime=true",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		network,
		address,
		os.Getenv("DB_NAME"),
	), true
}

// ConnectDatabaseWithRetry sets the global DB. Call it after the HTTP server is listening;
// with DB_HOST unset the dashboard runs without saved connections and load history.
func ConnectDatabaseWithRetry(ctx context.Context, maxAttempts int) {
	log := GetLogger().WithField("field", "database")
	dsn, ok := DatabaseDSN()
	if !ok {
		log.Info("DB_HOST not set; running without database")
		return
	}

	attempt := 0
	connect := func() error {
		attempt++
		conn, err := gorm.Open(mysql.Open(dsn), gormConfig())
		if err != nil {
			return err
		}
		applyPoolSettings(conn)
		if err := conn.Use(otelgorm.NewPlugin()); err != nil {
			log.WithError(err).Warn("db connected but failed to install otelgorm plugin")
		}
		db = conn
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.WithFields(logrus.Fields{"attempt": attempt, "retry_in": wait.String()}).Warn("failed to connect database: " + err.Error())
	}

	if err := backoff.RetryNotify(connect, connectBackoff(ctx, maxAttempts), notify); err != nil {
		log.WithField("attempts", attempt).Error("giving up on database: " + err.Error())
		return
	}
	log.WithField("attempt", attempt).Info("connected to database")
}

// connectBackoff doubles from one second up to thirty, for at most maxAttempts tries.
func connectBackoff(ctx context.Context, maxAttempts int) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	var out backoff.BackOff = b
	if maxAttempts > 0 {
		out = backoff.WithMaxRetries(out, uint64(maxAttempts-1))
	}
	return backoff.WithContext(out, ctx)
}

func applyPoolSettings(conn *gorm.DB) {
	sqlDB, err := conn.DB()
	if err != nil || sqlDB == nil {
		return
	}
	if maxOpen := intFromEnv("DB_MAX_OPEN_CONNS", 10); maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle := intFromEnv("DB_MAX_IDLE_CONNS", 5); maxIdle >= 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if life := time.Duration(intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second; life > 0 {
		sqlDB.SetConnMaxLifetime(life)
	}
}

func CloseDatabase() {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// gormConfig routes gorm's slow-query and error output through the JSON logger.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(
			GetLogger(),
			logger.Config{
				Colorful:      false,
				LogLevel:      logger.Error,
				SlowThreshold: time.Second,
			},
		),
		NamingStrategy: &schema.NamingStrategy{
			TablePrefix: strings.TrimSpace(os.Getenv("DB_TABLE_PREFIX")),
		},
	}
}
