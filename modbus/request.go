// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import "fmt"

// AddressRange describes a contiguous run of coils or registers.
type AddressRange struct {
	Start uint16
	Count uint16
}

// NewAddressRange validates and returns an AddressRange. count must be at
// least 1 and start+count must not overflow the 16-bit address space.
func NewAddressRange(start, count uint16) (AddressRange, error) {
	if count < 1 {
		return AddressRange{}, invalidRequestf("count must be >= 1, got %d", count)
	}
	if int(start)+int(count) > 65536 {
		return AddressRange{}, invalidRequestf("range [%d, %d) exceeds the 16-bit address space", start, int(start)+int(count))
	}
	return AddressRange{Start: start, Count: count}, nil
}

func invalidRequestf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// Bit is a single coil address and value.
type Bit struct {
	Index uint16
	Value bool
}

// Register is a single holding-register address and value.
type Register struct {
	Index uint16
	Value uint16
}

// Request is the sum type of the eight requests §3 defines. Concrete types
// are exported so callers can type-switch to inspect parameters; only
// package modbus can construct implementations that are guaranteed valid,
// via the New* constructors below.
type Request interface {
	FunctionCode() FunctionCode
	encodeBody(c *WriteCursor) error
}

// ReadCoilsRequest reads a run of coils.
type ReadCoilsRequest struct{ Range AddressRange }

// ReadDiscreteInputsRequest reads a run of discrete inputs.
type ReadDiscreteInputsRequest struct{ Range AddressRange }

// ReadHoldingRegistersRequest reads a run of holding registers.
type ReadHoldingRegistersRequest struct{ Range AddressRange }

// ReadInputRegistersRequest reads a run of input registers.
type ReadInputRegistersRequest struct{ Range AddressRange }

// WriteSingleCoilRequest writes one coil.
type WriteSingleCoilRequest struct{ Bit Bit }

// WriteSingleRegisterRequest writes one holding register.
type WriteSingleRegisterRequest struct{ Register Register }

// WriteMultipleCoilsRequest writes a run of coils.
type WriteMultipleCoilsRequest struct {
	Start  uint16
	Values []bool
}

// WriteMultipleRegistersRequest writes a run of holding registers.
type WriteMultipleRegistersRequest struct {
	Start  uint16
	Values []uint16
}

func NewReadCoils(rng AddressRange) (*ReadCoilsRequest, error) {
	if err := checkReadCount(FuncCodeReadCoils, rng.Count, maxReadBitCount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return &ReadCoilsRequest{Range: rng}, nil
}

func NewReadDiscreteInputs(rng AddressRange) (*ReadDiscreteInputsRequest, error) {
	if err := checkReadCount(FuncCodeReadDiscreteInputs, rng.Count, maxReadBitCount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return &ReadDiscreteInputsRequest{Range: rng}, nil
}

func NewReadHoldingRegisters(rng AddressRange) (*ReadHoldingRegistersRequest, error) {
	if err := checkReadCount(FuncCodeReadHoldingRegisters, rng.Count, maxReadRegisterCount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return &ReadHoldingRegistersRequest{Range: rng}, nil
}

func NewReadInputRegisters(rng AddressRange) (*ReadInputRegistersRequest, error) {
	if err := checkReadCount(FuncCodeReadInputRegisters, rng.Count, maxReadRegisterCount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return &ReadInputRegistersRequest{Range: rng}, nil
}

func NewWriteSingleCoil(bit Bit) *WriteSingleCoilRequest {
	return &WriteSingleCoilRequest{Bit: bit}
}

func NewWriteSingleRegister(reg Register) *WriteSingleRegisterRequest {
	return &WriteSingleRegisterRequest{Register: reg}
}

func NewWriteMultipleCoils(start uint16, values []bool) (*WriteMultipleCoilsRequest, error) {
	if len(values) < 1 || len(values) > maxWriteCoilCount {
		return nil, invalidRequestf("write multiple coils: length %d out of range [1, %d]", len(values), maxWriteCoilCount)
	}
	if int(start)+len(values) > 65536 {
		return nil, invalidRequestf("write multiple coils: range [%d, %d) exceeds the 16-bit address space", start, int(start)+len(values))
	}
	return &WriteMultipleCoilsRequest{Start: start, Values: values}, nil
}

func NewWriteMultipleRegisters(start uint16, values []uint16) (*WriteMultipleRegistersRequest, error) {
	if len(values) < 1 || len(values) > maxWriteRegisterCount {
		return nil, invalidRequestf("write multiple registers: length %d out of range [1, %d]", len(values), maxWriteRegisterCount)
	}
	if int(start)+len(values) > 65536 {
		return nil, invalidRequestf("write multiple registers: range [%d, %d) exceeds the 16-bit address space", start, int(start)+len(values))
	}
	return &WriteMultipleRegistersRequest{Start: start, Values: values}, nil
}

func checkReadCount(fc FunctionCode, count uint16, max int) error {
	if count < 1 || int(count) > max {
		return &BadRangeError{FunctionCode: fc, Quantity: int(count), Max: max}
	}
	return nil
}

func (r *ReadCoilsRequest) FunctionCode() FunctionCode            { return FuncCodeReadCoils }
func (r *ReadDiscreteInputsRequest) FunctionCode() FunctionCode   { return FuncCodeReadDiscreteInputs }
func (r *ReadHoldingRegistersRequest) FunctionCode() FunctionCode { return FuncCodeReadHoldingRegisters }
func (r *ReadInputRegistersRequest) FunctionCode() FunctionCode   { return FuncCodeReadInputRegisters }
func (r *WriteSingleCoilRequest) FunctionCode() FunctionCode      { return FuncCodeWriteSingleCoil }
func (r *WriteSingleRegisterRequest) FunctionCode() FunctionCode  { return FuncCodeWriteSingleRegister }
func (r *WriteMultipleCoilsRequest) FunctionCode() FunctionCode   { return FuncCodeWriteMultipleCoils }
func (r *WriteMultipleRegistersRequest) FunctionCode() FunctionCode {
	return FuncCodeWriteMultipleRegisters
}

func (r *ReadCoilsRequest) encodeBody(c *WriteCursor) error {
	return encodeReadBody(c, r.Range)
}

func (r *ReadDiscreteInputsRequest) encodeBody(c *WriteCursor) error {
	return encodeReadBody(c, r.Range)
}

func (r *ReadHoldingRegistersRequest) encodeBody(c *WriteCursor) error {
	return encodeReadBody(c, r.Range)
}

func (r *ReadInputRegistersRequest) encodeBody(c *WriteCursor) error {
	return encodeReadBody(c, r.Range)
}

func encodeReadBody(c *WriteCursor, rng AddressRange) error {
	if err := c.WriteU16BE(rng.Start); err != nil {
		return err
	}
	return c.WriteU16BE(rng.Count)
}

func (r *WriteSingleCoilRequest) encodeBody(c *WriteCursor) error {
	if err := c.WriteU16BE(r.Bit.Index); err != nil {
		return err
	}
	return c.WriteU16BE(coilWireValue(r.Bit.Value))
}

func (r *WriteSingleRegisterRequest) encodeBody(c *WriteCursor) error {
	if err := c.WriteU16BE(r.Register.Index); err != nil {
		return err
	}
	return c.WriteU16BE(r.Register.Value)
}

func (r *WriteMultipleCoilsRequest) encodeBody(c *WriteCursor) error {
	if err := c.WriteU16BE(r.Start); err != nil {
		return err
	}
	if err := c.WriteU16BE(uint16(len(r.Values))); err != nil {
		return err
	}
	packed := packBits(r.Values)
	if err := c.WriteU8(byte(len(packed))); err != nil {
		return err
	}
	return c.WriteBytes(packed)
}

func (r *WriteMultipleRegistersRequest) encodeBody(c *WriteCursor) error {
	if err := c.WriteU16BE(r.Start); err != nil {
		return err
	}
	if err := c.WriteU16BE(uint16(len(r.Values))); err != nil {
		return err
	}
	regBytes := encodeRegisters(r.Values)
	if err := c.WriteU8(byte(len(regBytes))); err != nil {
		return err
	}
	return c.WriteBytes(regBytes)
}

// coilWireValue maps a coil boolean to its Modbus wire encoding
// (0xFF00 / 0x0000).
func coilWireValue(v bool) uint16 {
	if v {
		return 0xFF00
	}
	return 0x0000
}
