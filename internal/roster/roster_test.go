package roster

import (
	"fmt"
	"sync"
	"testing"

	"harvester/internal/domain"
)

func acc(email string) domain.Account {
	return domain.Account{Email: email, Password: "pw"}
}

func TestAddAndSnapshotOrder(t *testing.T) {
	r := New([]domain.Account{acc("a@x.com"), acc("b@x.com"), acc("a@x.com")})

	if r.Len() != 2 {
		t.Fatalf("len = %d, want 2 (duplicate dropped)", r.Len())
	}

	snap := r.Snapshot()
	if snap[0].Email != "a@x.com" || snap[1].Email != "b@x.com" {
		t.Errorf("order not preserved: %v", snap)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	r := New([]domain.Account{acc("a@x.com"), acc("b@x.com"), acc("c@x.com")})

	if !r.Remove("b@x.com") {
		t.Fatal("first remove should report true")
	}
	if r.Remove("b@x.com") {
		t.Fatal("second remove must be a no-op")
	}
	if r.Len() != 2 {
		t.Errorf("len = %d, want 2", r.Len())
	}

	// Индекс после удаления из середины остаётся согласованным.
	got, ok := r.Get("c@x.com")
	if !ok || got.Email != "c@x.com" {
		t.Errorf("index broken after middle removal: %v %v", got, ok)
	}
}

func TestConcurrentRemoval(t *testing.T) {
	var accounts []domain.Account
	for i := 0; i < 100; i++ {
		accounts = append(accounts, acc(fmt.Sprintf("u%d@x.com", i)))
	}
	r := New(accounts)

	var wg sync.WaitGroup
	removed := make([]bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			removed[i] = r.Remove(fmt.Sprintf("u%d@x.com", i%50))
		}(i)
	}
	wg.Wait()

	// Каждый из 50 email удалён ровно одним из двух конкурентов.
	var count int
	for _, ok := range removed {
		if ok {
			count++
		}
	}
	if count != 50 {
		t.Errorf("successful removals = %d, want 50", count)
	}
	if r.Len() != 50 {
		t.Errorf("len = %d, want 50", r.Len())
	}
}
