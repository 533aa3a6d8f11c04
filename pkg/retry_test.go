package pkg

import (
	"errors"
	"testing"
)

func TestPollDoneFirstAttempt(t *testing.T) {
	calls := 0
	ok, err := Poll(3, 0, func() (bool, error) {
		calls++
		return true, nil
	})
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if !ok {
		t.Error("ok = false, want true")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPollExhaustsAttempts(t *testing.T) {
	calls := 0
	ok, err := Poll(4, 0, func() (bool, error) {
		calls++
		return false, nil
	})
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if ok {
		t.Error("ok = true, want false")
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestPollAbortsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	ok, err := Poll(5, 0, func() (bool, error) {
		calls++
		if calls == 2 {
			return false, boom
		}
		return false, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if ok {
		t.Error("ok = true, want false")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestPollDoneOnLaterAttempt(t *testing.T) {
	calls := 0
	ok, err := Poll(5, 0, func() (bool, error) {
		calls++
		return calls == 3, nil
	})
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if !ok {
		t.Error("ok = false, want true")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}
