package sessionstore

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryStoreClaimIsSetIfAbsent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	claim, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if claim != nil {
		t.Fatalf("fresh session already has a claim")
	}

	ok, err := store.Claim(ctx, "s1", &GuestClaim{Token: "t1", ProblemGroupID: "g1"})
	if err != nil || !ok {
		t.Fatalf("first Claim = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = store.Claim(ctx, "s1", &GuestClaim{Token: "t2", ProblemGroupID: "g2"})
	if err != nil {
		t.Fatalf("second Claim: %v", err)
	}
	if ok {
		t.Fatalf("second Claim displaced the first")
	}

	claim, err = store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if claim == nil || claim.Token != "t1" || claim.ProblemGroupID != "g1" {
		t.Fatalf("claim = %+v, want the first writer's", claim)
	}
}

func TestMemoryStoreCompleteAndClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.MarkCompleted(ctx, "missing"); err == nil {
		t.Fatalf("MarkCompleted on a missing session must fail")
	}

	if _, err := store.Claim(ctx, "s1", &GuestClaim{Token: "t1", ProblemGroupID: "g1"}); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.MarkCompleted(ctx, "s1"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	claim, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if claim == nil || !claim.Completed {
		t.Fatalf("claim not completed: %+v", claim)
	}

	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	claim, err = store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get after Clear: %v", err)
	}
	if claim != nil {
		t.Fatalf("claim survived Clear: %+v", claim)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Claim(ctx, "s1", &GuestClaim{Token: "t1", ProblemGroupID: "g1"}); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	claim, _ := store.Get(ctx, "s1")
	claim.Completed = true

	fresh, _ := store.Get(ctx, "s1")
	if fresh.Completed {
		t.Fatalf("mutating a returned claim leaked into the store")
	}
}

func TestMemoryStoreConcurrentClaims(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan int, attempts)
	for i := 0; i < attempts; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Claim(ctx, "contested", &GuestClaim{Token: "t", ProblemGroupID: "g"})
			if err != nil {
				t.Errorf("Claim: %v", err)
				return
			}
			if ok {
				wins <- i
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for range wins {
		winners++
	}
	if winners != 1 {
		t.Fatalf("%d concurrent claims won, want exactly 1", winners)
	}
}
