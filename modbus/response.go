// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

// Response is the sum type mirroring Request. Read responses carry a lazy
// BitSequence/RegisterSequence; write responses echo the affected range or
// value.
type Response interface {
	FunctionCode() FunctionCode
	encodeBody(c *WriteCursor) error
}

type ReadCoilsResponse struct{ Bits BitSequence }
type ReadDiscreteInputsResponse struct{ Bits BitSequence }
type ReadHoldingRegistersResponse struct{ Registers RegisterSequence }
type ReadInputRegistersResponse struct{ Registers RegisterSequence }
type WriteSingleCoilResponse struct{ Bit Bit }
type WriteSingleRegisterResponse struct{ Register Register }
type WriteMultipleCoilsResponse struct {
	Start uint16
	Count uint16
}
type WriteMultipleRegistersResponse struct {
	Start uint16
	Count uint16
}

func (r *ReadCoilsResponse) FunctionCode() FunctionCode            { return FuncCodeReadCoils }
func (r *ReadDiscreteInputsResponse) FunctionCode() FunctionCode   { return FuncCodeReadDiscreteInputs }
func (r *ReadHoldingRegistersResponse) FunctionCode() FunctionCode { return FuncCodeReadHoldingRegisters }
func (r *ReadInputRegistersResponse) FunctionCode() FunctionCode   { return FuncCodeReadInputRegisters }
func (r *WriteSingleCoilResponse) FunctionCode() FunctionCode      { return FuncCodeWriteSingleCoil }
func (r *WriteSingleRegisterResponse) FunctionCode() FunctionCode  { return FuncCodeWriteSingleRegister }
func (r *WriteMultipleCoilsResponse) FunctionCode() FunctionCode   { return FuncCodeWriteMultipleCoils }
func (r *WriteMultipleRegistersResponse) FunctionCode() FunctionCode {
	return FuncCodeWriteMultipleRegisters
}

func (r *ReadCoilsResponse) encodeBody(c *WriteCursor) error       { return encodeBitsBody(c, r.Bits) }
func (r *ReadDiscreteInputsResponse) encodeBody(c *WriteCursor) error {
	return encodeBitsBody(c, r.Bits)
}

func encodeBitsBody(c *WriteCursor, bits BitSequence) error {
	packed := packBits(bits.Slice())
	if err := c.WriteU8(byte(len(packed))); err != nil {
		return err
	}
	return c.WriteBytes(packed)
}

func (r *ReadHoldingRegistersResponse) encodeBody(c *WriteCursor) error {
	return encodeRegistersBody(c, r.Registers)
}

func (r *ReadInputRegistersResponse) encodeBody(c *WriteCursor) error {
	return encodeRegistersBody(c, r.Registers)
}

func encodeRegistersBody(c *WriteCursor, regs RegisterSequence) error {
	data := encodeRegisters(regs.Slice())
	if err := c.WriteU8(byte(len(data))); err != nil {
		return err
	}
	return c.WriteBytes(data)
}

func (r *WriteSingleCoilResponse) encodeBody(c *WriteCursor) error {
	if err := c.WriteU16BE(r.Bit.Index); err != nil {
		return err
	}
	return c.WriteU16BE(coilWireValue(r.Bit.Value))
}

func (r *WriteSingleRegisterResponse) encodeBody(c *WriteCursor) error {
	if err := c.WriteU16BE(r.Register.Index); err != nil {
		return err
	}
	return c.WriteU16BE(r.Register.Value)
}

func (r *WriteMultipleCoilsResponse) encodeBody(c *WriteCursor) error {
	if err := c.WriteU16BE(r.Start); err != nil {
		return err
	}
	return c.WriteU16BE(r.Count)
}

func (r *WriteMultipleRegistersResponse) encodeBody(c *WriteCursor) error {
	if err := c.WriteU16BE(r.Start); err != nil {
		return err
	}
	return c.WriteU16BE(r.Count)
}
