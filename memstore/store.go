// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package memstore is an in-memory Modbus data model: one table each of
// coils, discrete inputs, holding registers, and input registers, keyed
// by unit id, so one Store can back any number of simulated devices.
package memstore

import "sync"

// addressSpace bounds every table at the full 16-bit Modbus address
// range; per-unit tables are allocated lazily on first touch rather than
// eagerly reserving it for every unit id.
const addressSpace = 1 << 16

type unitTables struct {
	coils            []bool
	discreteInputs   []bool
	holdingRegisters []uint16
	inputRegisters   []uint16
}

func newUnitTables() *unitTables {
	return &unitTables{
		coils:            make([]bool, addressSpace),
		discreteInputs:   make([]bool, addressSpace),
		holdingRegisters: make([]uint16, addressSpace),
		inputRegisters:   make([]uint16, addressSpace),
	}
}

// Store holds the register file for any number of unit ids.
type Store struct {
	mu    sync.RWMutex
	units map[byte]*unitTables
}

// NewStore returns an empty Store; unit tables come into existence the
// first time that unit id is touched.
func NewStore() *Store {
	return &Store{units: make(map[byte]*unitTables)}
}

func (s *Store) tableFor(unitID byte) *unitTables {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.units[unitID]
	if !ok {
		t = newUnitTables()
		s.units[unitID] = t
	}
	return t
}

// SeedHoldingRegisters writes values starting at start for unitID,
// creating the unit's tables if necessary. It is meant for test and
// startup fixtures, not the request path.
func (s *Store) SeedHoldingRegisters(unitID byte, start uint16, values []uint16) {
	t := s.tableFor(unitID)
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(t.holdingRegisters[start:], values)
}

// SeedInputRegisters is the input-register counterpart of
// SeedHoldingRegisters.
func (s *Store) SeedInputRegisters(unitID byte, start uint16, values []uint16) {
	t := s.tableFor(unitID)
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(t.inputRegisters[start:], values)
}

// SeedCoils is the coil counterpart of SeedHoldingRegisters.
func (s *Store) SeedCoils(unitID byte, start uint16, values []bool) {
	t := s.tableFor(unitID)
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(t.coils[start:], values)
}

// SeedDiscreteInputs is the discrete-input counterpart of
// SeedHoldingRegisters.
func (s *Store) SeedDiscreteInputs(unitID byte, start uint16, values []bool) {
	t := s.tableFor(unitID)
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(t.discreteInputs[start:], values)
}

func inRange(start uint16, count int) bool {
	return int(start)+count <= addressSpace
}
