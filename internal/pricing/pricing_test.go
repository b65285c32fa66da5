package pricing

import (
	"math"
	"testing"
)

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		name       string
		price      int64
		percentage int
		want       int64
	}{
		{name: "ten percent of 9000", price: 9000, percentage: 10, want: 8100},
		{name: "no discount", price: 9000, percentage: 0, want: 9000},
		{name: "full discount", price: 9000, percentage: 100, want: 0},
		{name: "rounds down below half", price: 9999, percentage: 10, want: 8999},
		{name: "rounds half up", price: 5, percentage: 10, want: 5},
		{name: "rounds half up on odd price", price: 15, percentage: 50, want: 8},
		{name: "rounds above half up", price: 7, percentage: 10, want: 6},
		{name: "zero price", price: 0, percentage: 25, want: 0},
		{name: "one percent", price: 1000, percentage: 1, want: 990},
		{name: "large price does not overflow", price: 1 << 60, percentage: 10, want: 1037629354146162278},
		{name: "max price one percent", price: math.MaxInt64, percentage: 1, want: 9131138316486228049},
		{name: "max price half", price: math.MaxInt64, percentage: 50, want: 4611686018427387904},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyDiscount(tt.price, tt.percentage)
			if got != tt.want {
				t.Fatalf("ApplyDiscount(%d, %d) = %d, want %d", tt.price, tt.percentage, got, tt.want)
			}
		})
	}
}

func TestApplyDiscountBounds(t *testing.T) {
	prices := []int64{0, 1, 2, 9, 10, 99, 101, 8100, 9998, 123457, 1 << 40, 1 << 60, math.MaxInt64 / 3, math.MaxInt64 - 1, math.MaxInt64}
	for _, price := range prices {
		for pct := 1; pct <= 100; pct++ {
			got := ApplyDiscount(price, pct)
			if got < 0 || got > price {
				t.Fatalf("ApplyDiscount(%d, %d) = %d, out of [0, %d]", price, pct, got, price)
			}
		}
	}
}
