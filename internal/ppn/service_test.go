package ppn

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/voisilab/voisimap/pkg/geo"
)

func testPPN(id string, lat, lon float64) *PPN {
	return &PPN{
		ID:         id,
		Name:       "Voisilab " + id,
		City:       "Abidjan",
		Zone:       ZoneUrban,
		Status:     StatusActive,
		Coordinate: geo.Coordinate{Lat: lat, Lon: lon},
	}
}

func TestService_List_SkipsInvalidCoordinates(t *testing.T) {
	repo := NewInMemoryRepositoryWithPPNs([]*PPN{
		testPPN("ppn_1", 5.30, -4.02),
		testPPN("ppn_2", math.NaN(), -4.02),
		testPPN("ppn_3", 95.0, -4.02),
	})
	service := NewService(repo, zerolog.Nop())

	ppns, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ppns) != 1 {
		t.Fatalf("expected 1 valid ppn, got %d", len(ppns))
	}
	if ppns[0].ID != "ppn_1" {
		t.Errorf("expected ppn_1, got %s", ppns[0].ID)
	}
}

func TestService_Get(t *testing.T) {
	repo := NewInMemoryRepositoryWithPPNs([]*PPN{
		testPPN("ppn_1", 5.30, -4.02),
	})
	service := NewService(repo, zerolog.Nop())

	p, err := service.Get(context.Background(), "ppn_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Coordinate.Lat != 5.30 {
		t.Errorf("unexpected coordinate: %+v", p.Coordinate)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	service := NewService(NewInMemoryRepository(), zerolog.Nop())

	_, err := service.Get(context.Background(), "ppn_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Get_InvalidCoordinatesHidden(t *testing.T) {
	repo := NewInMemoryRepositoryWithPPNs([]*PPN{
		testPPN("ppn_bad", math.Inf(1), 0),
	})
	service := NewService(repo, zerolog.Nop())

	_, err := service.Get(context.Background(), "ppn_bad")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unmappable ppn, got %v", err)
	}
}

func TestService_List_SortedByName(t *testing.T) {
	repo := NewInMemoryRepository()
	a := testPPN("ppn_a", 5.30, -4.02)
	a.Name = "Bouake Lab"
	b := testPPN("ppn_b", 6.82, -5.28)
	b.Name = "Abidjan Lab"
	repo.Put(a)
	repo.Put(b)

	service := NewService(repo, zerolog.Nop())
	ppns, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ppns) != 2 || ppns[0].Name != "Abidjan Lab" {
		t.Errorf("expected name ordering, got %v", ppns)
	}
}
