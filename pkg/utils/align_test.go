package utils_test

import (
	"testing"

	"rvcc.dev/compiler/pkg/utils"
)

func TestRoundUpToMultiple(t *testing.T) {
	cases := []struct {
		value, multiple, want int
	}{
		{0, 16, 0},
		{1, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
		{4, 4, 4},
		{5, 4, 8},
		{36, 16, 48},
	}

	for _, c := range cases {
		got := utils.RoundUpToMultiple(c.value, c.multiple)
		if got != c.want {
			t.Errorf("RoundUpToMultiple(%d, %d) = %d, want %d", c.value, c.multiple, got, c.want)
		}
	}
}
