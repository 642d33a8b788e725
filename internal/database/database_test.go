package database

import (
	"strings"
	"testing"
	"time"

	"github.com/chessforge/backend/internal/config"
	"github.com/chessforge/backend/internal/customization"
	"go.uber.org/zap"
)

func sqliteTestConfig(dsn string) config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver:                 config.DriverSQLite,
		Path:                   dsn,
		MaxOpenConns:           2,
		MaxIdleConns:           1,
		ConnMaxIdleTime:        time.Minute,
		ConnMaxLifetime:        time.Minute,
		RetryMaxAttempts:       2,
		RetryBaseDelay:         time.Millisecond,
		RetryBackoffMultiplier: 2,
	}
}

func TestOpenMigratesSchema(t *testing.T) {
	db, err := Open(sqliteTestConfig("file:database_open_test?mode=memory&cache=shared"), zap.NewNop())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	for _, table := range []string{"customizations", "pieces"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("expected table %q after migration", table)
		}
	}

	// The migrated schema must accept a parent row with children.
	record := customization.Customization{
		ID:        "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
		Name:      "schema smoke",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.Omit("Pieces").Create(&record).Error; err != nil {
		t.Fatalf("parent insert failed: %v", err)
	}
	piece := customization.Piece{
		CustomizationID: record.ID,
		Type:            customization.PieceTypePawn,
		Color:           customization.PieceColorWhite,
		ImageData:       "AQID",
	}
	if err := db.Create(&piece).Error; err != nil {
		t.Fatalf("child insert failed: %v", err)
	}
	if piece.ID == 0 {
		t.Fatal("expected serial child id to establish insertion order")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := sqliteTestConfig("unused")
	cfg.Driver = "oracle"
	if _, err := Open(cfg, nil); err == nil {
		t.Fatal("expected unknown driver error")
	}
}

func TestOpenExhaustsRetries(t *testing.T) {
	cfg := sqliteTestConfig("/nonexistent-dir/subdir/chessforge.db")
	start := time.Now()
	_, err := Open(cfg, zap.NewNop())
	if err == nil {
		t.Fatal("expected connection failure")
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Fatalf("error should name the attempt count: %v", err)
	}
	// One backoff sleep between the two attempts.
	if elapsed := time.Since(start); elapsed < time.Millisecond {
		t.Fatalf("expected at least one backoff delay, finished in %v", elapsed)
	}
}
