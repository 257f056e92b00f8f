// Package database открывает пул соединений PostgreSQL и создает схему отправлений.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"uniship/internal/config"
	"uniship/internal/logger"

	_ "github.com/lib/pq"
)

const connectTimeout = 5 * time.Second

// DB представляет подключение к базе данных
type DB struct {
	*sql.DB
}

// quoteValue экранирует значение для строки подключения lib/pq
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// DSN собирает строку подключения в формате key=value
func DSN(cfg *config.DatabaseConfig) string {
	parts := []string{
		"host=" + quoteValue(cfg.Host),
		"port=" + quoteValue(cfg.Port),
		"user=" + quoteValue(cfg.User),
		"password=" + quoteValue(cfg.Password),
		"dbname=" + quoteValue(cfg.DBName),
		"sslmode=" + quoteValue(cfg.SSLMode),
	}
	return strings.Join(parts, " ")
}

// Connect создает подключение к базе данных
func Connect(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	db, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"host":   cfg.Host,
		"dbname": cfg.DBName,
	}).Info("Successfully connected to database")

	return &DB{DB: db}, nil
}

// Close закрывает подключение к базе данных
func (db *DB) Close() error {
	return db.DB.Close()
}

// Health проверяет состояние базы данных
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
