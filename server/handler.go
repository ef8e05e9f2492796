// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package server

import "github.com/ffutop/modbus-core/modbus"

// Handler answers one request at a time for a given unit id (§4.8). Each
// method returns modbus.ExceptionCode(0) on success; any other value is
// sent back as an exception response and its data return value is
// ignored.
type Handler interface {
	ReadCoils(unitID byte, rng modbus.AddressRange) (modbus.BitSequence, modbus.ExceptionCode)
	ReadDiscreteInputs(unitID byte, rng modbus.AddressRange) (modbus.BitSequence, modbus.ExceptionCode)
	ReadHoldingRegisters(unitID byte, rng modbus.AddressRange) (modbus.RegisterSequence, modbus.ExceptionCode)
	ReadInputRegisters(unitID byte, rng modbus.AddressRange) (modbus.RegisterSequence, modbus.ExceptionCode)
	WriteSingleCoil(unitID byte, bit modbus.Bit) modbus.ExceptionCode
	WriteSingleRegister(unitID byte, reg modbus.Register) modbus.ExceptionCode
	WriteMultipleCoils(unitID byte, start uint16, values []bool) modbus.ExceptionCode
	WriteMultipleRegisters(unitID byte, start uint16, values []uint16) modbus.ExceptionCode
}
