package memory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

func TestProjectStore_InsertAssignsIDs(t *testing.T) {
	store := NewProjectStore()
	ctx := context.Background()

	first := &domain.Project{Owner: "owner1", TotalRaised: big.NewInt(0)}
	second := &domain.Project{Owner: "owner2", TotalRaised: big.NewInt(0)}

	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, second); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("expected sequential IDs 1,2, got %d,%d", first.ID, second.ID)
	}
}

func TestProjectStore_GetAndUpdate(t *testing.T) {
	store := NewProjectStore()
	ctx := context.Background()

	p := &domain.Project{Owner: "owner1", TotalRaised: big.NewInt(100)}
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	// Mutating the returned copy must not affect the stored record.
	got.TotalRaised.SetInt64(999)
	again, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if again.TotalRaised.Int64() != 100 {
		t.Errorf("store leaked mutable state: %s", again.TotalRaised)
	}

	again.Phase = domain.PhaseActive
	if err := store.Update(ctx, again); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	final, _ := store.GetByID(ctx, p.ID)
	if final.Phase != domain.PhaseActive {
		t.Errorf("update not persisted, phase=%s", final.Phase)
	}
}

func TestProjectStore_NotFound(t *testing.T) {
	store := NewProjectStore()
	ctx := context.Background()

	if _, err := store.GetByID(ctx, 42); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Update(ctx, &domain.Project{ID: 42}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}
}

func TestProjectStore_GetByPhase(t *testing.T) {
	store := NewProjectStore()
	ctx := context.Background()

	for i, phase := range []domain.Phase{domain.PhaseActive, domain.PhaseFailed, domain.PhaseActive} {
		p := &domain.Project{Owner: "owner", Phase: phase, TotalRaised: big.NewInt(int64(i))}
		if err := store.Insert(ctx, p); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	active, err := store.GetByPhase(ctx, domain.PhaseActive)
	if err != nil {
		t.Fatalf("GetByPhase failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active projects, got %d", len(active))
	}
	if active[0].ID > active[1].ID {
		t.Error("results not ordered by ID")
	}
}
