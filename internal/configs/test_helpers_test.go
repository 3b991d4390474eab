package configs

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const absentConfigID = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"

var (
	identityAlice = Identity{ID: "user-alice", Username: "alice"}
	identityBob   = Identity{ID: "user-bob", Username: "bob"}
	identityCarol = Identity{ID: "user-carol", Username: "carol"}
)

type sequentialIDGenerator struct {
	next int
}

func (g *sequentialIDGenerator) NewID() (string, error) {
	g.next++
	return fmt.Sprintf("018f4f47-0000-7000-8000-%012d", g.next), nil
}

type tickingClock struct {
	current int64
}

func (c *tickingClock) Now() time.Time {
	c.current++
	return time.Unix(c.current, 0)
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:confighub_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&Config{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      (&tickingClock{current: 1700000000}).Now,
		IDProvider: &sequentialIDGenerator{},
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}

	return service, db
}

func mustCreate(t *testing.T, service *Service, identity Identity, input CreateInput) *Config {
	t.Helper()
	created, err := service.Create(context.Background(), identity, input)
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	return created
}

func reloadConfig(t *testing.T, db *gorm.DB, configID string) Config {
	t.Helper()
	var stored Config
	if err := db.Where("config_id = ?", configID).Take(&stored).Error; err != nil {
		t.Fatalf("failed to reload configuration: %v", err)
	}
	return stored
}
