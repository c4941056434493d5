package memory

import (
	"context"
	"testing"

	"github.com/ecash-community/metachronik/internal/core/domain"
)

func TestUpsert_FirstRowWins(t *testing.T) {
	repo := NewBlockRepo(NewMemoryStorage())
	ctx := context.Background()

	first := &domain.BlockMetrics{
		Height: 800000, Hash: "aa", Timestamp: 1714557600,
		TxCount: 5, AgoraVolumeSats: 1000,
	}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Upsert(ctx, &domain.BlockMetrics{
		Height: 800000, Hash: "bb", Timestamp: 1714557601,
		TxCount: 9, AgoraVolumeSats: 9999,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetByHeight(ctx, 800000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored block")
	}
	if got.Hash != "aa" || got.TxCount != 5 || got.AgoraVolumeSats != 1000 {
		t.Errorf("expected first row kept, got %+v", got)
	}
}
