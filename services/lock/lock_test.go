package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"oddsEngine/services/common"
)

func TestLocalLockerExclusion(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, err := l.Acquire(ctx, "settle:wager:1", time.Second)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if _, err := l.Acquire(ctx, "settle:wager:1", time.Second); !errors.Is(err, common.ErrLockHeld) {
		t.Errorf("second acquire error = %v, expected ErrLockHeld", err)
	}

	// a different key is independent
	other, err := l.Acquire(ctx, "settle:wager:2", time.Second)
	if err != nil {
		t.Errorf("independent key acquire failed: %v", err)
	} else {
		other()
	}

	unlock()
	unlock2, err := l.Acquire(ctx, "settle:wager:1", time.Second)
	if err != nil {
		t.Fatalf("reacquire after unlock failed: %v", err)
	}
	unlock2()
}

func TestLocalLockerUnlockIsIdempotent(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, err := l.Acquire(ctx, "k", time.Second)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	unlock()

	// this holder's second release must not free a new holder's lock
	relock, err := l.Acquire(ctx, "k", time.Second)
	if err != nil {
		t.Fatalf("reacquire failed: %v", err)
	}
	unlock()

	if _, err := l.Acquire(ctx, "k", time.Second); !errors.Is(err, common.ErrLockHeld) {
		t.Errorf("stale unlock released a live lock: %v", err)
	}
	relock()
}

func TestLocalLockerConcurrentAcquire(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	const attempts = 32
	var (
		wg  sync.WaitGroup
		won int32
		mu  sync.Mutex
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Acquire(ctx, "contended", time.Second)
			if err != nil {
				if !errors.Is(err, common.ErrLockHeld) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			mu.Lock()
			won++
			mu.Unlock()
			// hold until every goroutine has tried
			defer unlock()
			time.Sleep(10 * time.Millisecond)
		}()
	}
	wg.Wait()

	if won == 0 {
		t.Error("no goroutine ever acquired the lock")
	}
}
