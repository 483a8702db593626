package future

import (
	"context"
	"errors"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Single future
// ---------------------------------------------------------------------------

func TestFuture_ResolveAwait(t *testing.T) {
	f := New[int]()
	go f.Resolve(42)

	v, err := f.Await(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestFuture_RejectAwait(t *testing.T) {
	boom := errors.New("boom")
	f := New[string]()
	f.Reject(boom)

	_, err := f.Await(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestFuture_SettleOnce(t *testing.T) {
	f := New[int]()
	f.Resolve(1)
	f.Resolve(2)
	f.Reject(errors.New("late"))

	v, err := f.Await(context.Background())
	if err != nil {
		t.Fatalf("first settlement should win: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}
}

func TestFuture_AwaitCancelled(t *testing.T) {
	f := New[int]()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Await(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// The future is still pending and can settle afterwards.
	f.Resolve(9)
	v, err := f.Await(context.Background())
	if err != nil || v != 9 {
		t.Fatalf("expected 9 after late resolve, got %d, %v", v, err)
	}
}

func TestFuture_TryResult(t *testing.T) {
	f := New[int]()
	if _, err := f.TryResult(); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("expected ErrUnresolved, got %v", err)
	}

	f.Resolve(5)
	v, err := f.TryResult()
	if err != nil || v != 5 {
		t.Fatalf("expected 5, got %d, %v", v, err)
	}
}

func TestResolvedRejected(t *testing.T) {
	v, err := Resolved("ok").Await(context.Background())
	if err != nil || v != "ok" {
		t.Fatalf("expected ok, got %q, %v", v, err)
	}

	boom := errors.New("boom")
	if _, err := Rejected[string](boom).Await(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Combinators
// ---------------------------------------------------------------------------

func TestAll_Success(t *testing.T) {
	fs := []*Future[int]{New[int](), New[int](), New[int]()}
	for i, f := range fs {
		go func() {
			time.Sleep(time.Duration(i) * 5 * time.Millisecond)
			f.Resolve(i * 10)
		}()
	}

	vals, err := All(context.Background(), fs...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range vals {
		if v != i*10 {
			t.Fatalf("expected %d at index %d, got %d", i*10, i, v)
		}
	}
}

func TestAll_FailFast(t *testing.T) {
	boom := errors.New("boom")
	ok := Resolved(1)
	bad := Rejected[int](boom)
	never := New[int]() // never settles; All must not wait for it

	_, err := All(context.Background(), ok, bad, never)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestAllSettled_MixedOutcomes(t *testing.T) {
	boom := errors.New("boom")
	fs := []*Future[int]{Resolved(1), Rejected[int](boom), Resolved(3)}

	results, err := AllSettled(context.Background(), fs...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Err != nil || results[0].Value != 1 {
		t.Fatalf("unexpected result[0]: %+v", results[0])
	}
	if !errors.Is(results[1].Err, boom) {
		t.Fatalf("expected boom at index 1, got %v", results[1].Err)
	}
	if results[2].Err != nil || results[2].Value != 3 {
		t.Fatalf("unexpected result[2]: %+v", results[2])
	}
}

func TestAny_FirstSuccessWins(t *testing.T) {
	slow := New[string]()
	fast := New[string]()
	failed := Rejected[string](errors.New("nope"))

	go func() {
		time.Sleep(50 * time.Millisecond)
		slow.Resolve("slow")
	}()
	go fast.Resolve("fast")

	v, err := Any(context.Background(), slow, fast, failed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "fast" {
		t.Fatalf("expected fast, got %q", v)
	}
}

func TestAny_AllFail_JoinsErrors(t *testing.T) {
	e1 := errors.New("first")
	e2 := errors.New("second")

	_, err := Any(context.Background(), Rejected[int](e1), Rejected[int](e2))
	if err == nil {
		t.Fatal("expected joined error")
	}
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("expected both errors joined, got %v", err)
	}
}

func TestRace_FirstSettlementWins(t *testing.T) {
	winner := New[int]()
	loser := New[int]()

	go winner.Reject(errors.New("fast failure"))

	_, err := Race(context.Background(), winner, loser)
	if err == nil {
		t.Fatal("expected the fast failure to win the race")
	}
}

func TestRace_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := Race(ctx, New[int]())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
