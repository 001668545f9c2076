package application

import "testing"

func TestIntrusionCoordinator_Evaluate(t *testing.T) {
	t.Parallel()

	coordinator := NewIntrusionCoordinator(3)

	cases := []struct {
		count int
		want  bool
	}{
		{count: 0, want: false},
		{count: 2, want: false},
		{count: 3, want: true},
		{count: 4, want: true},
	}
	for _, tc := range cases {
		if got := coordinator.Evaluate(tc.count); got != tc.want {
			t.Fatalf("Evaluate(%d) = %v, want %v", tc.count, got, tc.want)
		}
	}
}

func TestIntrusionCoordinator_DefaultThreshold(t *testing.T) {
	t.Parallel()

	if got := NewIntrusionCoordinator(0).Threshold(); got != 3 {
		t.Fatalf("expected default threshold 3, got %d", got)
	}
}
