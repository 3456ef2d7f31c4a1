// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeAfter(t *testing.T) {
	clock := Fake(time.Unix(1000, 0))

	channel := clock.After(time.Second)
	select {
	case <-channel:
		t.Fatal("waiter fired before Advance")
	default:
	}

	clock.Advance(500 * time.Millisecond)
	select {
	case <-channel:
		t.Fatal("waiter fired before deadline")
	default:
	}

	clock.Advance(500 * time.Millisecond)
	select {
	case fired := <-channel:
		if !fired.Equal(time.Unix(1001, 0)) {
			t.Errorf("unexpected fire time: %v", fired)
		}
	default:
		t.Fatal("waiter did not fire at deadline")
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	clock := Fake(time.Unix(1000, 0))
	select {
	case <-clock.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
	if clock.Waiters() != 0 {
		t.Errorf("After(0) should not register a waiter, have %d", clock.Waiters())
	}
}

func TestFakeBlockUntil(t *testing.T) {
	clock := Fake(time.Unix(1000, 0))

	done := make(chan struct{})
	go func() {
		clock.Sleep(time.Second)
		close(done)
	}()

	clock.BlockUntil(1)
	clock.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sleep did not return after Advance")
	}
}

func TestFakeNow(t *testing.T) {
	start := time.Unix(1000, 0)
	clock := Fake(start)
	if !clock.Now().Equal(start) {
		t.Errorf("unexpected initial time: %v", clock.Now())
	}
	clock.Advance(time.Minute)
	if !clock.Now().Equal(start.Add(time.Minute)) {
		t.Errorf("unexpected advanced time: %v", clock.Now())
	}
}
