// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package memstore

import (
	"testing"

	"github.com/ffutop/modbus-core/modbus"
)

func TestReadWriteRoundTrip(t *testing.T) {
	store := NewStore()
	h := NewHandler(store)

	if exc := h.WriteSingleRegister(1, modbus.Register{Index: 10, Value: 0xBEEF}); exc != 0 {
		t.Fatalf("write failed: %v", exc)
	}
	rng, err := modbus.NewAddressRange(10, 1)
	if err != nil {
		t.Fatal(err)
	}
	regs, exc := h.ReadHoldingRegisters(1, rng)
	if exc != 0 {
		t.Fatalf("read failed: %v", exc)
	}
	if got, _ := regs.At(0); got != 0xBEEF {
		t.Fatalf("got %04X, want BEEF", got)
	}
}

func TestUnitIsolation(t *testing.T) {
	store := NewStore()
	h := NewHandler(store)

	h.WriteSingleCoil(1, modbus.Bit{Index: 5, Value: true})
	rng, err := modbus.NewAddressRange(5, 1)
	if err != nil {
		t.Fatal(err)
	}
	bits, _ := h.ReadCoils(2, rng)
	if got, _ := bits.At(0); got {
		t.Fatal("write to unit 1 leaked into unit 2")
	}
}

func TestWriteMultipleCoilsOutOfRange(t *testing.T) {
	store := NewStore()
	h := NewHandler(store)
	exc := h.WriteMultipleCoils(1, 65530, make([]bool, 100))
	if exc != modbus.ExceptionIllegalDataAddress {
		t.Fatalf("expected IllegalDataAddress, got %v", exc)
	}
}

func TestSeedHoldingRegisters(t *testing.T) {
	store := NewStore()
	store.SeedHoldingRegisters(1, 0x006B, []uint16{0x022B, 0x0000, 0x0064})
	h := NewHandler(store)
	rng, err := modbus.NewAddressRange(0x006B, 3)
	if err != nil {
		t.Fatal(err)
	}
	regs, exc := h.ReadHoldingRegisters(1, rng)
	if exc != 0 {
		t.Fatalf("read failed: %v", exc)
	}
	want := []uint16{0x022B, 0x0000, 0x0064}
	got := regs.Slice()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("registers = %v, want %v", got, want)
		}
	}
}
