package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/richinex/omnireport/model"
)

func TestInMemoryStoreSaveAndLoad(t *testing.T) {
	store := NewInMemoryStore(model.Credentials{Model: "seed-model"})
	ctx := context.Background()

	creds, err := store.LoadCredentials(ctx)
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}
	if creds.Model != "seed-model" {
		t.Errorf("expected seeded model, got %q", creds.Model)
	}

	want := model.Credentials{SearchAPIKey: "tvly-1", GenerationAPIKey: "sk-1", Model: "m"}
	if err := store.SaveCredentials(ctx, want); err != nil {
		t.Fatalf("SaveCredentials failed: %v", err)
	}
	got, _ := store.LoadCredentials(ctx)
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestInMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewInMemoryStore(model.Credentials{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.SaveCredentials(ctx, model.Credentials{Model: "m"})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.LoadCredentials(ctx)
		}()
	}
	wg.Wait()

	got, _ := store.LoadCredentials(ctx)
	if got.Model != "m" {
		t.Errorf("expected model 'm', got %q", got.Model)
	}
}

func TestMergeKeepsUnsetFields(t *testing.T) {
	base := model.Credentials{SearchAPIKey: "tvly-old", GenerationAPIKey: "sk-old", Model: "old"}

	got := Merge(base, model.Credentials{GenerationAPIKey: "sk-new"})
	want := model.Credentials{SearchAPIKey: "tvly-old", GenerationAPIKey: "sk-new", Model: "old"}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	if got := Merge(base, model.Credentials{}); got != base {
		t.Errorf("empty update should be a no-op, got %+v", got)
	}
}
