package database

import (
	"testing"

	"uniship/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host: "db", Port: "5432", User: "uniship", Password: "it's a secret",
		DBName: "uniship", SSLMode: "disable",
	}

	want := `host=db port=5432 user=uniship password='it\'s a secret' dbname=uniship sslmode=disable`
	if got := DSN(cfg); got != want {
		t.Errorf("DSN = %s\nwant  %s", got, want)
	}

	cfg.Password = ""
	if got := DSN(cfg); got != "host=db port=5432 user=uniship password='' dbname=uniship sslmode=disable" {
		t.Errorf("empty password DSN = %s", got)
	}
}
