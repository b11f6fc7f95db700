package tensor

import (
	"math"
	"testing"
)

func TestFloat16FromBits(t *testing.T) {
	cases := []struct {
		bits uint16
		want float32
	}{
		{0x0000, 0},
		{0x3c00, 1},
		{0xbc00, -1},
		{0x4000, 2},
		{0x3555, 0.33325195}, // closest half to 1/3
		{0x7bff, 65504},      // largest finite half
		{0x0001, 5.9604645e-08},
		{0xc400, -4},
	}

	for _, tc := range cases {
		got := Float16FromBits(tc.bits)
		if got != tc.want {
			t.Errorf("Float16FromBits(0x%04x) = %v, want %v", tc.bits, got, tc.want)
		}
	}
}

func TestFloat16FromBitsSpecials(t *testing.T) {
	if !math.IsInf(float64(Float16FromBits(0x7c00)), 1) {
		t.Error("0x7c00 should decode to +Inf")
	}
	if !math.IsInf(float64(Float16FromBits(0xfc00)), -1) {
		t.Error("0xfc00 should decode to -Inf")
	}
	if !math.IsNaN(float64(Float16FromBits(0x7e00))) {
		t.Error("0x7e00 should decode to NaN")
	}
}

func TestFloat16BitsRoundtrip(t *testing.T) {
	values := []float32{0, 1, -1, 2, -4, 0.5, 65504, 5.9604645e-08}
	for _, v := range values {
		bits := Float16Bits(v)
		if got := Float16FromBits(bits); got != v {
			t.Errorf("roundtrip %v: got %v (bits 0x%04x)", v, got, bits)
		}
	}
}

func TestFloat16BitsOverflow(t *testing.T) {
	if Float16Bits(1e6) != 0x7c00 {
		t.Errorf("1e6 should overflow to +Inf, got 0x%04x", Float16Bits(1e6))
	}
	if Float16Bits(-1e6) != 0xfc00 {
		t.Errorf("-1e6 should overflow to -Inf, got 0x%04x", Float16Bits(-1e6))
	}
}
