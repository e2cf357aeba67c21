package ca

import "testing"

func TestInitialState_Default(t *testing.T) {
	s := DefaultInitialState()
	if !s.IsDefault() {
		t.Fatal("DefaultInitialState().IsDefault() = false, want true")
	}
	if s.At(0) != 1 {
		t.Errorf("At(0) = %d, want 1", s.At(0))
	}
	for _, x := range []int64{-1, 1, -100, 100} {
		if got := s.At(x); got != 0 {
			t.Errorf("At(%d) = %d, want 0", x, got)
		}
	}
}

func TestInitialState_Explicit(t *testing.T) {
	s, err := NewInitialState("101")
	if err != nil {
		t.Fatalf("NewInitialState(\"101\") error: %v", err)
	}
	if s.IsDefault() {
		t.Fatal("explicit state reports IsDefault() = true")
	}
	want := []uint8{1, 0, 1}
	for i, w := range want {
		if got := s.At(int64(i)); got != w {
			t.Errorf("At(%d) = %d, want %d", i, got, w)
		}
	}
	if got := s.At(-1); got != 0 {
		t.Errorf("At(-1) = %d, want 0", got)
	}
	if got := s.At(3); got != 0 {
		t.Errorf("At(3) = %d, want 0", got)
	}
}

func TestInitialState_RejectsInvalidCharacters(t *testing.T) {
	for _, bad := range []string{"102", "abc", "10 1", "1-0"} {
		if _, err := NewInitialState(bad); err == nil {
			t.Errorf("NewInitialState(%q) error = nil, want non-nil", bad)
		}
	}
}

func TestInitialState_DigestDistinctness(t *testing.T) {
	def := DefaultInitialState()
	empty, err := NewInitialState("")
	if err != nil {
		t.Fatalf("NewInitialState(\"\") error: %v", err)
	}
	one, err := NewInitialState("1")
	if err != nil {
		t.Fatalf("NewInitialState(\"1\") error: %v", err)
	}
	oneOne, err := NewInitialState("11")
	if err != nil {
		t.Fatalf("NewInitialState(\"11\") error: %v", err)
	}

	digests := map[string]uint64{
		"default": def.Digest(),
		"empty":   empty.Digest(),
		"1":       one.Digest(),
		"11":      oneOne.Digest(),
	}
	seen := make(map[uint64]string)
	for name, d := range digests {
		if other, ok := seen[d]; ok {
			t.Errorf("digest collision: %q and %q both hash to %d", name, other, d)
		}
		seen[d] = name
	}
}

func TestInitialState_DigestStable(t *testing.T) {
	a, _ := NewInitialState("10110")
	b, _ := NewInitialState("10110")
	if a.Digest() != b.Digest() {
		t.Error("equal patterns produced different digests")
	}
}
