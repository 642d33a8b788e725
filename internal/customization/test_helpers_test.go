package customization

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type staticIDGenerator struct {
	ids   []string
	index int
}

func (g *staticIDGenerator) NewID() (string, error) {
	if g.index >= len(g.ids) {
		return "", errors.New("exhausted ids")
	}
	id := g.ids[g.index]
	g.index++
	return id, nil
}

func newTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Customization{}, &Piece{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

// newTestService returns a gateway over an in-memory store with a clock that
// advances one second per call, so creation-order assertions are stable.
func newTestService(t *testing.T) *Service {
	t.Helper()
	db := newTestDatabase(t)

	current := time.Unix(1_700_000_000, 0).UTC()
	clock := func() time.Time {
		current = current.Add(time.Second)
		return current
	}

	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      clock,
		IDProvider: NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}

func strPtr(value string) *string {
	return &value
}

func pawnPiece() PieceInput {
	return PieceInput{Type: PieceTypePawn, Color: PieceColorWhite, ImageData: "AQID"}
}
