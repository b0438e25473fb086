package main

import "testing"

func TestWinRate(t *testing.T) {
	tests := []struct {
		wins  int64
		total int64
		want  float64
	}{
		{0, 0, 0},
		{5, 10, 0.5},
		{10, 10, 1},
		{0, 4, 0},
	}

	for _, tt := range tests {
		if got := winRate(tt.wins, tt.total); got != tt.want {
			t.Errorf("winRate(%d, %d) = %v, want %v", tt.wins, tt.total, got, tt.want)
		}
	}
}
