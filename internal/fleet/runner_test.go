package fleet

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"harvester/internal/domain"
	"harvester/internal/roster"
)

// fakeOrchestrator считает параллельные циклы на свой email.
type fakeOrchestrator struct {
	email   string
	counter *cycleCounter
	delay   time.Duration
}

type cycleCounter struct {
	mu       sync.Mutex
	active   map[string]int
	overlaps int32
	total    int32
}

func newCycleCounter() *cycleCounter {
	return &cycleCounter{active: make(map[string]int)}
}

func (c *cycleCounter) enter(email string) {
	c.mu.Lock()
	c.active[email]++
	if c.active[email] > 1 {
		atomic.AddInt32(&c.overlaps, 1)
	}
	c.mu.Unlock()
	atomic.AddInt32(&c.total, 1)
}

func (c *cycleCounter) leave(email string) {
	c.mu.Lock()
	c.active[email]--
	c.mu.Unlock()
}

func (o *fakeOrchestrator) Farm(ctx context.Context) domain.OperationResult {
	o.counter.enter(o.email)
	defer o.counter.leave(o.email)
	time.Sleep(o.delay)
	return domain.OperationResult{Identifier: o.email, Status: true}
}

func (o *fakeOrchestrator) Register(ctx context.Context) domain.OperationResult {
	return domain.OperationResult{Identifier: o.email, Status: true}
}

func (o *fakeOrchestrator) Reverify(ctx context.Context) domain.OperationResult {
	return domain.OperationResult{Identifier: o.email, Status: true}
}

func (o *fakeOrchestrator) Login(ctx context.Context) domain.OperationResult {
	return domain.OperationResult{Identifier: o.email, Status: true}
}

func (o *fakeOrchestrator) Stats(ctx context.Context) domain.StatisticData {
	o.counter.enter(o.email)
	defer o.counter.leave(o.email)
	time.Sleep(o.delay)
	return domain.StatisticData{Success: true}
}

func (o *fakeOrchestrator) CompleteTasks(ctx context.Context) domain.OperationResult {
	return domain.OperationResult{Identifier: o.email, Status: true}
}

func testRoster(n int) *roster.Roster {
	accounts := make([]domain.Account, n)
	for i := range accounts {
		accounts[i] = domain.Account{Email: string(rune('a'+i)) + "@example.com", Password: "pw"}
	}
	return roster.New(accounts)
}

func TestRunnerNoConcurrentCyclesPerAccount(t *testing.T) {
	counter := newCycleCounter()
	r := New(Config{
		Roster: testRoster(3),
		Factory: func(account domain.Account) Orchestrator {
			return &fakeOrchestrator{email: account.Email, counter: counter, delay: 30 * time.Millisecond}
		},
		TickInterval: 5 * time.Millisecond,
		Workers:      8,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	r.Stop()

	if !r.IsStopped() {
		t.Fatal("runner must report stopped")
	}
	if got := atomic.LoadInt32(&counter.overlaps); got != 0 {
		t.Fatalf("overlapping cycles = %d, want 0", got)
	}
	if atomic.LoadInt32(&counter.total) == 0 {
		t.Fatal("no cycles ran")
	}
}

func TestStatsSweepRespectsInflightClaims(t *testing.T) {
	counter := newCycleCounter()
	r := New(Config{
		Roster: testRoster(1),
		Factory: func(account domain.Account) Orchestrator {
			return &fakeOrchestrator{email: account.Email, counter: counter, delay: 30 * time.Millisecond}
		},
		TickInterval: 5 * time.Millisecond,
		Workers:      4,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Снятие статистики во время идущих циклов фермы, как это делает
	// cron-колбэк.
	for i := 0; i < 6; i++ {
		r.statsSweep(ctx)
		time.Sleep(10 * time.Millisecond)
	}
	r.Stop()

	if got := atomic.LoadInt32(&counter.overlaps); got != 0 {
		t.Fatalf("overlapping workflows for one email = %d, want 0", got)
	}
	if atomic.LoadInt32(&counter.total) == 0 {
		t.Fatal("no workflows ran")
	}
}

func TestRunStatsSkipsBusyAccountWithoutRemoteCalls(t *testing.T) {
	counter := newCycleCounter()
	r := New(Config{
		Roster: testRoster(1),
		Factory: func(account domain.Account) Orchestrator {
			return &fakeOrchestrator{email: account.Email, counter: counter}
		},
		Workers: 2,
	})

	// Аккаунт занят активным циклом.
	if !r.claim("a@example.com") {
		t.Fatal("claim failed on an idle account")
	}
	defer r.release("a@example.com")

	reports := r.RunStats(context.Background())
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reports))
	}
	if reports[0].Email != "a@example.com" {
		t.Fatalf("email = %s", reports[0].Email)
	}
	if reports[0].Data.Success {
		t.Fatal("busy account must be skipped, not queried")
	}
	if atomic.LoadInt32(&counter.total) != 0 {
		t.Fatal("skipped account must not reach the orchestrator")
	}
}

func TestRunnerSkipsQuarantinedAccounts(t *testing.T) {
	counter := newCycleCounter()
	ros := testRoster(2)
	ros.Remove("a@example.com")

	r := New(Config{
		Roster: ros,
		Factory: func(account domain.Account) Orchestrator {
			return &fakeOrchestrator{email: account.Email, counter: counter}
		},
		TickInterval: 5 * time.Millisecond,
		Workers:      2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	counter.mu.Lock()
	defer counter.mu.Unlock()
	if _, ran := counter.active["a@example.com"]; ran {
		t.Fatal("removed account must not be dispatched")
	}
	if _, ran := counter.active["b@example.com"]; !ran {
		t.Fatal("remaining account must be dispatched")
	}
}

func TestSweepCollectsAllResults(t *testing.T) {
	counter := newCycleCounter()
	r := New(Config{
		Roster: testRoster(5),
		Factory: func(account domain.Account) Orchestrator {
			return &fakeOrchestrator{email: account.Email, counter: counter}
		},
		Workers: 2,
	})

	results := r.RunRegistration(context.Background())
	if len(results) != 5 {
		t.Fatalf("results = %d, want 5", len(results))
	}
	for i, res := range results {
		if !res.Status {
			t.Errorf("result %d failed", i)
		}
		if res.Identifier == "" {
			t.Errorf("result %d missing identifier", i)
		}
	}
}

func TestRunStatsOrder(t *testing.T) {
	counter := newCycleCounter()
	r := New(Config{
		Roster: testRoster(4),
		Factory: func(account domain.Account) Orchestrator {
			return &fakeOrchestrator{email: account.Email, counter: counter}
		},
		Workers: 3,
	})

	reports := r.RunStats(context.Background())
	if len(reports) != 4 {
		t.Fatalf("reports = %d, want 4", len(reports))
	}
	want := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"}
	for i, rep := range reports {
		if rep.Email != want[i] {
			t.Fatalf("report %d = %s, want %s (roster order preserved)", i, rep.Email, want[i])
		}
		if !rep.Data.Success {
			t.Fatalf("report %d not successful", i)
		}
	}
}
