package token

import "testing"

func TestIsSymbol(t *testing.T) {
	tests := map[string]bool{
		"depth":      true,
		"_private1":  true,
		"date":       true,
		"not_null":   true,
		"x":          false,
		"2nd":        false,
		"":           false,
		"x) OR (y":   false,
		"name space": false,
		"and":        false,
		"Between":    false,
		"TRUE":       false,
		"like":       false,
	}

	for input, expected := range tests {
		if actual := IsSymbol(input); actual != expected {
			t.Fatalf("IsSymbol(%q) - expected %v, got %v", input, expected, actual)
		}
	}
}
