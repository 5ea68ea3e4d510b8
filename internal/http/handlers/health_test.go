package handlers

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler("1.0.0")

	output, err := handler.Health(context.Background(), &HealthInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Body.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", output.Body.Status)
	}
	if output.Body.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got '%s'", output.Body.Version)
	}
	if output.Body.Database != "not configured" {
		t.Errorf("expected 'not configured' database, got '%s'", output.Body.Database)
	}
}

func TestHealthHandler_HealthWithDB(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}

	handler := NewHealthHandler("1.0.0").WithDB(db)

	output, err := handler.Health(context.Background(), &HealthInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Body.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", output.Body.Status)
	}
	if output.Body.Database != "ok" {
		t.Errorf("expected database 'ok', got '%s'", output.Body.Database)
	}
}
