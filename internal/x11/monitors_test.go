package x11

import "testing"

func TestMonitorAt(t *testing.T) {
	monitors := []Monitor{
		{ID: 0, X: 0, Y: 0, Width: 1920, Height: 1080},
		{ID: 1, X: 1920, Y: 0, Width: 2560, Height: 1440},
	}

	tests := []struct {
		x, y int
		want int
	}{
		{0, 0, 0},
		{1919, 1079, 0},
		{1920, 0, 1},
		{4000, 1400, 1},
		{-1, 0, -1},
		{100, 1200, -1},
	}
	for _, tt := range tests {
		got := monitorAt(monitors, tt.x, tt.y)
		switch {
		case tt.want < 0 && got != nil:
			t.Fatalf("monitorAt(%d,%d) = %d, want none", tt.x, tt.y, got.ID)
		case tt.want >= 0 && (got == nil || got.ID != tt.want):
			t.Fatalf("monitorAt(%d,%d) = %v, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}
