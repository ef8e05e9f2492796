// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"math/rand"
	"testing"
)

// TestBitPackingRoundTrip is invariant 3 from §8: decode_bits(encode_bits(bs))
// == bs for 1 <= |bs| <= 2000, trailing pad bits zero.
func TestBitPackingRoundTrip(t *testing.T) {
	sizes := []int{1, 2, 7, 8, 9, 16, 17, 1968, 2000}
	rng := rand.New(rand.NewSource(1))
	for _, n := range sizes {
		values := make([]bool, n)
		for i := range values {
			values[i] = rng.Intn(2) == 1
		}
		packed := packBits(values)
		if got, want := len(packed), (n+7)/8; got != want {
			t.Fatalf("n=%d: byte count = %d, want %d", n, got, want)
		}
		seq := newBitSequence(packed, n)
		got := seq.Slice()
		for i := range values {
			if got[i] != values[i] {
				t.Fatalf("n=%d: bit %d mismatch: got %v want %v", n, i, got[i], values[i])
			}
		}
		// trailing pad bits within the last byte must be zero
		if n%8 != 0 {
			last := packed[len(packed)-1]
			for i := n % 8; i < 8; i++ {
				if last&(1<<uint(i)) != 0 {
					t.Fatalf("n=%d: pad bit %d not zero", n, i)
				}
			}
		}
	}
}

func TestRegisterSequenceRoundTrip(t *testing.T) {
	values := []uint16{0x0000, 0x0203, 0xFFFF, 0x1234}
	data := encodeRegisters(values)
	seq := newRegisterSequence(data)
	if seq.Len() != len(values) {
		t.Fatalf("Len() = %d, want %d", seq.Len(), len(values))
	}
	for i, v := range values {
		got, ok := seq.At(i)
		if !ok || got != v {
			t.Fatalf("At(%d) = (%v, %v), want %v", i, got, ok, v)
		}
	}
}
