// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package modbus implements the Modbus application-layer wire format: the
// PDU codec, the MBAP frame codec, and the typed request/response model
// shared by the client and server packages.
package modbus

// FunctionCode identifies the operation carried by a PDU. The high bit
// (0x80) is set on exception responses.
type FunctionCode byte

const (
	FuncCodeReadCoils              FunctionCode = 0x01
	FuncCodeReadDiscreteInputs     FunctionCode = 0x02
	FuncCodeReadHoldingRegisters   FunctionCode = 0x03
	FuncCodeReadInputRegisters     FunctionCode = 0x04
	FuncCodeWriteSingleCoil        FunctionCode = 0x05
	FuncCodeWriteSingleRegister    FunctionCode = 0x06
	FuncCodeWriteMultipleCoils     FunctionCode = 0x0F
	FuncCodeWriteMultipleRegisters FunctionCode = 0x10
)

// exceptionBit marks a response PDU's function code as an exception.
const exceptionBit FunctionCode = 0x80

// IsException reports whether fc carries the exception bit.
func (fc FunctionCode) IsException() bool {
	return fc&exceptionBit != 0
}

// AsException returns the exception response function code for fc: fc
// with the exception bit set.
func (fc FunctionCode) AsException() FunctionCode {
	return fc | exceptionBit
}

// Underlying strips the exception bit, returning the request function code.
func (fc FunctionCode) Underlying() FunctionCode {
	return fc &^ exceptionBit
}

func (fc FunctionCode) String() string {
	switch fc.Underlying() {
	case FuncCodeReadCoils:
		return "ReadCoils"
	case FuncCodeReadDiscreteInputs:
		return "ReadDiscreteInputs"
	case FuncCodeReadHoldingRegisters:
		return "ReadHoldingRegisters"
	case FuncCodeReadInputRegisters:
		return "ReadInputRegisters"
	case FuncCodeWriteSingleCoil:
		return "WriteSingleCoil"
	case FuncCodeWriteSingleRegister:
		return "WriteSingleRegister"
	case FuncCodeWriteMultipleCoils:
		return "WriteMultipleCoils"
	case FuncCodeWriteMultipleRegisters:
		return "WriteMultipleRegisters"
	default:
		return "Unknown"
	}
}

// count bounds from §4.1
const (
	maxReadBitCount      = 2000
	maxReadRegisterCount = 125
	maxWriteCoilCount    = 1968
	maxWriteRegisterCount = 123
)
