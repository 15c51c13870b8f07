package backoff

import (
	"testing"
	"time"
)

func TestTimeFirstFailureWindow(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := Time(0)
		if d < 0 || d >= 500*time.Millisecond {
			t.Fatalf("Time(0) = %v, want [0, 500ms)", d)
		}
	}
}

func TestUpperMonotonicAndCapped(t *testing.T) {
	prev := time.Duration(0)
	for n := 0; n < 32; n++ {
		u := Upper(n)
		if u < prev {
			t.Fatalf("Upper(%d) = %v decreased from %v", n, u, prev)
		}
		if u > 60*time.Second {
			t.Fatalf("Upper(%d) = %v exceeds 60s cap", n, u)
		}
		prev = u
	}
	if Upper(31) != 60*time.Second {
		t.Errorf("Upper(31) = %v, want 60s cap", Upper(31))
	}
}

func TestTimeStaysUnderUpper(t *testing.T) {
	for n := 0; n < 10; n++ {
		for i := 0; i < 20; i++ {
			if d := Time(n); d >= Upper(n) && Upper(n) > 0 {
				t.Fatalf("Time(%d) = %v, want < %v", n, d, Upper(n))
			}
		}
	}
}
