package database_test

import (
	"testing"

	"github.com/p-n-ai/pai-course/internal/platform/database/dbtest"
)

func TestDB_HealthCheckAfterMigrate(t *testing.T) {
	db := dbtest.New(t)
	ctx := t.Context()

	if err := db.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}

	// Migrations are idempotent.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var app string
	if err := db.Pool.QueryRow(ctx, `SHOW application_name`).Scan(&app); err != nil {
		t.Fatalf("SHOW application_name error = %v", err)
	}
	if app != "pai-course" {
		t.Errorf("application_name = %q, want pai-course", app)
	}
}
