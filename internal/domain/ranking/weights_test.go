package ranking

import (
	"errors"
	"testing"

	"github.com/tributa-cloud/tributa/internal/domain"
)

func TestNewWeights(t *testing.T) {
	tests := []struct {
		name    string
		w       [5]float64 // lexical, vector, recency, quality, authority
		wantErr bool
	}{
		{"defaults", [5]float64{0.35, 0.30, 0.15, 0.10, 0.10}, false},
		{"single component", [5]float64{1, 0, 0, 0, 0}, false},
		{"within tolerance", [5]float64{0.35, 0.30, 0.15, 0.10, 0.100001}, false},
		{"sum too high", [5]float64{0.5, 0.5, 0.5, 0, 0}, true},
		{"sum too low", [5]float64{0.2, 0.2, 0.2, 0.2, 0.1}, true},
		{"just outside tolerance", [5]float64{0.35, 0.30, 0.15, 0.10, 0.1001}, true},
		{"negative weight", [5]float64{-0.1, 0.5, 0.3, 0.2, 0.1}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewWeights(tc.w[0], tc.w[1], tc.w[2], tc.w[3], tc.w[4])
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, domain.ErrInvalidWeights) {
					t.Errorf("error %v does not wrap ErrInvalidWeights", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	if w.Lexical() != 0.35 || w.Vector() != 0.30 || w.Recency() != 0.15 ||
		w.Quality() != 0.10 || w.Authority() != 0.10 {
		t.Errorf("unexpected defaults: %+v", w)
	}
}
