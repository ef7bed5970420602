package device

import (
	"errors"
	"testing"
	"time"
)

func TestPipeCarriesFramesBothWays(t *testing.T) {
	a, b := NewPipe()
	defer a.Close()

	if err := a.WriteLine("ping"); err != nil {
		t.Fatal(err)
	}
	got, err := b.ReadLine(time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if got != "ping" {
		t.Fatalf("got %q", got)
	}

	if err := b.WriteLine("pong"); err != nil {
		t.Fatal(err)
	}
	if got, err = a.ReadLine(time.Second); err != nil || got != "pong" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestPipeReadTimesOut(t *testing.T) {
	a, _ := NewPipe()
	defer a.Close()
	if _, err := a.ReadLine(10 * time.Millisecond); err == nil {
		t.Fatal("read returned without data")
	}
}

func TestPipeCloseUnblocksReads(t *testing.T) {
	a, b := NewPipe()
	done := make(chan error, 1)
	go func() {
		_, err := b.ReadLine(0)
		done <- err
	}()
	a.Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("got %v, want ErrClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked read survived Close")
	}
	if err := a.WriteLine("x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("write after close: %v", err)
	}
}

func TestPipeDropsWhenSaturated(t *testing.T) {
	a, b := NewPipe()
	defer a.Close()
	for i := 0; i < 200; i++ {
		if err := a.WriteLine("frame"); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	// drain; a saturated radio drops rather than blocks
	n := 0
	for {
		if _, err := b.ReadLine(10 * time.Millisecond); err != nil {
			break
		}
		n++
	}
	if n == 0 || n >= 200 {
		t.Fatalf("drained %d frames, want some but not all", n)
	}
}
