package core

import "testing"

func TestEnsureLenReuse(t *testing.T) {
	buf := make([]float64, 4, 8)

	out := EnsureLen(buf, 6)
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}

	if cap(out) != cap(buf) {
		t.Fatalf("cap = %d, want %d", cap(out), cap(buf))
	}
}

func TestEnsureLenGrow(t *testing.T) {
	out := EnsureLen(make([]float64, 2), 16)
	if len(out) != 16 {
		t.Fatalf("len = %d, want 16", len(out))
	}
}

func TestZero(t *testing.T) {
	buf := []float64{1, 2, 3}
	Zero(buf)

	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0", i, v)
		}
	}
}

func TestWidenNarrow(t *testing.T) {
	src := []float32{0.25, -0.5, 1}
	wide := make([]float64, 2)

	n := Widen(wide, src)
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if wide[0] != 0.25 || wide[1] != -0.5 {
		t.Fatalf("unexpected wide: %#v", wide)
	}

	narrow := make([]float32, 4)
	n = Narrow(narrow, []float64{0.125, 2, -1})
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	if narrow[0] != 0.125 || narrow[1] != 2 || narrow[2] != -1 || narrow[3] != 0 {
		t.Fatalf("unexpected narrow: %#v", narrow)
	}
}
