// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package memstore

import (
	"github.com/ffutop/modbus-core/modbus"
	"github.com/ffutop/modbus-core/server"
)

// Handler answers Modbus requests directly out of a Store, translating
// each read or write into the exported Bit, Register, BitSequence and
// RegisterSequence types used at the server.Handler boundary.
type Handler struct {
	store *Store
}

var _ server.Handler = (*Handler)(nil)

// NewHandler wraps store for use as a server.Handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) ReadCoils(unitID byte, rng modbus.AddressRange) (modbus.BitSequence, modbus.ExceptionCode) {
	if !inRange(rng.Start, int(rng.Count)) {
		return modbus.BitSequence{}, modbus.ExceptionIllegalDataAddress
	}
	t := h.store.tableFor(unitID)
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	values := append([]bool(nil), t.coils[rng.Start:int(rng.Start)+int(rng.Count)]...)
	return modbus.NewBitSequence(values), 0
}

func (h *Handler) ReadDiscreteInputs(unitID byte, rng modbus.AddressRange) (modbus.BitSequence, modbus.ExceptionCode) {
	if !inRange(rng.Start, int(rng.Count)) {
		return modbus.BitSequence{}, modbus.ExceptionIllegalDataAddress
	}
	t := h.store.tableFor(unitID)
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	values := append([]bool(nil), t.discreteInputs[rng.Start:int(rng.Start)+int(rng.Count)]...)
	return modbus.NewBitSequence(values), 0
}

func (h *Handler) ReadHoldingRegisters(unitID byte, rng modbus.AddressRange) (modbus.RegisterSequence, modbus.ExceptionCode) {
	if !inRange(rng.Start, int(rng.Count)) {
		return modbus.RegisterSequence{}, modbus.ExceptionIllegalDataAddress
	}
	t := h.store.tableFor(unitID)
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	values := append([]uint16(nil), t.holdingRegisters[rng.Start:int(rng.Start)+int(rng.Count)]...)
	return modbus.NewRegisterSequence(values), 0
}

func (h *Handler) ReadInputRegisters(unitID byte, rng modbus.AddressRange) (modbus.RegisterSequence, modbus.ExceptionCode) {
	if !inRange(rng.Start, int(rng.Count)) {
		return modbus.RegisterSequence{}, modbus.ExceptionIllegalDataAddress
	}
	t := h.store.tableFor(unitID)
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	values := append([]uint16(nil), t.inputRegisters[rng.Start:int(rng.Start)+int(rng.Count)]...)
	return modbus.NewRegisterSequence(values), 0
}

func (h *Handler) WriteSingleCoil(unitID byte, bit modbus.Bit) modbus.ExceptionCode {
	if !inRange(bit.Index, 1) {
		return modbus.ExceptionIllegalDataAddress
	}
	t := h.store.tableFor(unitID)
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	t.coils[bit.Index] = bit.Value
	return 0
}

func (h *Handler) WriteSingleRegister(unitID byte, reg modbus.Register) modbus.ExceptionCode {
	if !inRange(reg.Index, 1) {
		return modbus.ExceptionIllegalDataAddress
	}
	t := h.store.tableFor(unitID)
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	t.holdingRegisters[reg.Index] = reg.Value
	return 0
}

func (h *Handler) WriteMultipleCoils(unitID byte, start uint16, values []bool) modbus.ExceptionCode {
	if !inRange(start, len(values)) {
		return modbus.ExceptionIllegalDataAddress
	}
	t := h.store.tableFor(unitID)
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	copy(t.coils[start:], values)
	return 0
}

func (h *Handler) WriteMultipleRegisters(unitID byte, start uint16, values []uint16) modbus.ExceptionCode {
	if !inRange(start, len(values)) {
		return modbus.ExceptionIllegalDataAddress
	}
	t := h.store.tableFor(unitID)
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	copy(t.holdingRegisters[start:], values)
	return 0
}
