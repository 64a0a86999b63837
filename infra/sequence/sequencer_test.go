package sequence

import "testing"

func TestSequencer(t *testing.T) {
	s := New(0)
	if got := s.Next(); got != 1 {
		t.Fatalf("first Next = %d, want 1", got)
	}
	if got := s.Next(); got != 2 {
		t.Fatalf("second Next = %d, want 2", got)
	}
	if got := s.Current(); got != 2 {
		t.Fatalf("Current = %d, want 2", got)
	}

	s.Reset(41)
	if got := s.Next(); got != 42 {
		t.Fatalf("Next after Reset = %d, want 42", got)
	}
}
