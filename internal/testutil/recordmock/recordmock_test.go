package recordmock

import (
	"context"
	"errors"
	"testing"

	domain "checksheet-backend/internal/domain/record"
)

func TestRepo_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}
	if err := m.Create(ctx, &domain.CheckRecord{}); err != nil {
		t.Fatalf("Create default: want nil, got %v", err)
	}
	if err := m.Save(ctx, &domain.CheckRecord{}); err != nil {
		t.Fatalf("Save default: want nil, got %v", err)
	}
	if got, err := m.GetByID(ctx, "x"); err != context.Canceled || got != nil {
		t.Fatalf("GetByID default: want context.Canceled, got %v %+v", err, got)
	}
	if got, err := m.GetByIDForUpdate(ctx, "x"); err != context.Canceled || got != nil {
		t.Fatalf("GetByIDForUpdate default: want context.Canceled, got %v %+v", err, got)
	}
}

func TestRepo_GetByIDForUpdate(t *testing.T) {
	ctx := context.Background()
	want := &domain.CheckRecord{ID: "rec-5"}

	called := false
	m := &Repo{
		GetByIDForUpdateFn: func(gotCtx context.Context, id string) (*domain.CheckRecord, error) {
			called = true
			if gotCtx != ctx {
				t.Fatalf("ctx mismatch")
			}
			if id != "rec-5" {
				t.Fatalf("id mismatch: got %s", id)
			}
			return want, nil
		},
	}
	got, err := m.GetByIDForUpdate(ctx, "rec-5")
	if err != nil || got != want {
		t.Fatalf("GetByIDForUpdate: got %+v, %v", got, err)
	}
	if !called {
		t.Fatalf("GetByIDForUpdateFn not called")
	}
}

func TestItemAndChangeLogRepos(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("boom")

	items := &ItemRepo{UpsertFn: func(context.Context, []domain.RecordItem) error { return wantErr }}
	if err := items.Upsert(ctx, nil); !errors.Is(err, wantErr) {
		t.Fatalf("Upsert: want %v, got %v", wantErr, err)
	}
	logs := &ChangeLogRepo{}
	if err := logs.Insert(ctx, nil); err != nil {
		t.Fatalf("Insert default: want nil, got %v", err)
	}
}
