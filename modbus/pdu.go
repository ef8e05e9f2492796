// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

// EncodeRequest serializes req into a PDU (function code + body). It
// cannot fail for any Request produced by the New* constructors; the error
// return exists because encodeBody can hit BufferFullError on a
// hand-built Request that violates the count invariants those
// constructors enforce.
func EncodeRequest(req Request) ([]byte, error) {
	c := NewWriteCursor(MaxPDUSize)
	if err := c.WriteU8(byte(req.FunctionCode())); err != nil {
		return nil, err
	}
	if err := req.encodeBody(c); err != nil {
		return nil, err
	}
	return c.Bytes(), nil
}

// EncodeResponse serializes resp into a PDU.
func EncodeResponse(resp Response) ([]byte, error) {
	c := NewWriteCursor(MaxPDUSize)
	if err := c.WriteU8(byte(resp.FunctionCode())); err != nil {
		return nil, err
	}
	if err := resp.encodeBody(c); err != nil {
		return nil, err
	}
	return c.Bytes(), nil
}

// EncodeExceptionResponse serializes an exception PDU for fc|0x80.
func EncodeExceptionResponse(fc FunctionCode, code ExceptionCode) []byte {
	return []byte{byte(fc.AsException()), byte(code)}
}

// DecodeRequest decodes a PDU received by a server. pdu must include the
// leading function code byte.
func DecodeRequest(pdu []byte) (Request, error) {
	if len(pdu) < 1 {
		return nil, &InsufficientBytesError{Wanted: 1, Available: 0}
	}
	fc := FunctionCode(pdu[0])
	c := NewReadCursor(pdu[1:])

	switch fc {
	case FuncCodeReadCoils:
		return decodeReadRequest(c, fc, maxReadBitCount, func(rng AddressRange) Request { return &ReadCoilsRequest{Range: rng} })
	case FuncCodeReadDiscreteInputs:
		return decodeReadRequest(c, fc, maxReadBitCount, func(rng AddressRange) Request { return &ReadDiscreteInputsRequest{Range: rng} })
	case FuncCodeReadHoldingRegisters:
		return decodeReadRequest(c, fc, maxReadRegisterCount, func(rng AddressRange) Request { return &ReadHoldingRegistersRequest{Range: rng} })
	case FuncCodeReadInputRegisters:
		return decodeReadRequest(c, fc, maxReadRegisterCount, func(rng AddressRange) Request { return &ReadInputRegistersRequest{Range: rng} })
	case FuncCodeWriteSingleCoil:
		return decodeWriteSingleCoilRequest(c)
	case FuncCodeWriteSingleRegister:
		return decodeWriteSingleRegisterRequest(c)
	case FuncCodeWriteMultipleCoils:
		return decodeWriteMultipleCoilsRequest(c)
	case FuncCodeWriteMultipleRegisters:
		return decodeWriteMultipleRegistersRequest(c)
	default:
		return nil, &BadFunctionCodeError{Got: fc}
	}
}

func decodeReadRequest(c *ReadCursor, fc FunctionCode, max int, build func(AddressRange) Request) (Request, error) {
	start, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	qty, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	if err := c.ExpectEmpty(); err != nil {
		return nil, err
	}
	if err := checkReadCount(fc, qty, max); err != nil {
		return nil, err
	}
	rng, err := NewAddressRange(start, qty)
	if err != nil {
		return nil, err
	}
	return build(rng), nil
}

func decodeWriteSingleCoilRequest(c *ReadCursor) (Request, error) {
	addr, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	val, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	if err := c.ExpectEmpty(); err != nil {
		return nil, err
	}
	if val != 0x0000 && val != 0xFF00 {
		return nil, &BadByteCountError{Declared: int(val), Actual: -1}
	}
	return &WriteSingleCoilRequest{Bit: Bit{Index: addr, Value: val == 0xFF00}}, nil
}

func decodeWriteSingleRegisterRequest(c *ReadCursor) (Request, error) {
	addr, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	val, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	if err := c.ExpectEmpty(); err != nil {
		return nil, err
	}
	return &WriteSingleRegisterRequest{Register: Register{Index: addr, Value: val}}, nil
}

func decodeWriteMultipleCoilsRequest(c *ReadCursor) (Request, error) {
	start, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	qty, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	byteCount, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	if err := checkWriteCoilCount(qty); err != nil {
		return nil, err
	}
	if int(byteCount) != packedByteCount(int(qty)) {
		return nil, &BadByteCountError{Declared: int(byteCount), Actual: packedByteCount(int(qty))}
	}
	data, err := c.ReadBytes(int(byteCount))
	if err != nil {
		return nil, err
	}
	if err := c.ExpectEmpty(); err != nil {
		return nil, err
	}
	bits := newBitSequence(data, int(qty)).Slice()
	return &WriteMultipleCoilsRequest{Start: start, Values: bits}, nil
}

func decodeWriteMultipleRegistersRequest(c *ReadCursor) (Request, error) {
	start, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	qty, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	byteCount, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	if err := checkWriteRegisterCount(qty); err != nil {
		return nil, err
	}
	if int(byteCount) != int(qty)*2 {
		return nil, &BadByteCountError{Declared: int(byteCount), Actual: int(qty) * 2}
	}
	data, err := c.ReadBytes(int(byteCount))
	if err != nil {
		return nil, err
	}
	if err := c.ExpectEmpty(); err != nil {
		return nil, err
	}
	return &WriteMultipleRegistersRequest{Start: start, Values: newRegisterSequence(data).Slice()}, nil
}

func checkWriteCoilCount(qty uint16) error {
	if qty < 1 || int(qty) > maxWriteCoilCount {
		return &BadRangeError{FunctionCode: FuncCodeWriteMultipleCoils, Quantity: int(qty), Max: maxWriteCoilCount}
	}
	return nil
}

func checkWriteRegisterCount(qty uint16) error {
	if qty < 1 || int(qty) > maxWriteRegisterCount {
		return &BadRangeError{FunctionCode: FuncCodeWriteMultipleRegisters, Quantity: int(qty), Max: maxWriteRegisterCount}
	}
	return nil
}

// DecodeResponse decodes a response PDU on the client side. req is the
// original request, used to know the expected function code, the exact
// bit count for read-bit responses (the wire only carries a padded byte
// count), and which write echo shape to decode. Write echoes are returned
// as received; their address, value or count is not compared with req.
// pdu includes the leading function code byte.
//
// If the response is a valid exception frame, DecodeResponse returns a
// *ModbusException as the error.
func DecodeResponse(req Request, pdu []byte) (Response, error) {
	if len(pdu) < 1 {
		return nil, &InsufficientBytesError{Wanted: 1, Available: 0}
	}
	fc := FunctionCode(pdu[0])
	reqFC := req.FunctionCode()

	if fc.IsException() {
		if fc.Underlying() != reqFC {
			return nil, &BadFunctionCodeError{Got: fc, Expected: reqFC.AsException()}
		}
		if len(pdu) < 2 {
			return nil, &InsufficientBytesError{Wanted: 2, Available: len(pdu)}
		}
		return nil, &ModbusException{FunctionCode: reqFC, Code: ExceptionCode(pdu[1]), Raw: pdu[1]}
	}

	if fc != reqFC {
		return nil, &BadFunctionCodeError{Got: fc, Expected: reqFC}
	}

	c := NewReadCursor(pdu[1:])
	switch r := req.(type) {
	case *ReadCoilsRequest:
		return decodeReadBitsResponse(c, int(r.Range.Count), func(bits BitSequence) Response { return &ReadCoilsResponse{Bits: bits} })
	case *ReadDiscreteInputsRequest:
		return decodeReadBitsResponse(c, int(r.Range.Count), func(bits BitSequence) Response { return &ReadDiscreteInputsResponse{Bits: bits} })
	case *ReadHoldingRegistersRequest:
		return decodeReadRegistersResponse(c, int(r.Range.Count), func(regs RegisterSequence) Response { return &ReadHoldingRegistersResponse{Registers: regs} })
	case *ReadInputRegistersRequest:
		return decodeReadRegistersResponse(c, int(r.Range.Count), func(regs RegisterSequence) Response { return &ReadInputRegistersResponse{Registers: regs} })
	case *WriteSingleCoilRequest:
		return decodeWriteSingleCoilResponse(c)
	case *WriteSingleRegisterRequest:
		return decodeWriteSingleRegisterResponse(c)
	case *WriteMultipleCoilsRequest:
		return decodeWriteMultipleEcho(c, func(start, count uint16) Response { return &WriteMultipleCoilsResponse{Start: start, Count: count} })
	case *WriteMultipleRegistersRequest:
		return decodeWriteMultipleEcho(c, func(start, count uint16) Response { return &WriteMultipleRegistersResponse{Start: start, Count: count} })
	default:
		return nil, &BadFunctionCodeError{Got: fc}
	}
}

func decodeReadBitsResponse(c *ReadCursor, qty int, build func(BitSequence) Response) (Response, error) {
	byteCount, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	if int(byteCount) != packedByteCount(qty) {
		return nil, &BadByteCountError{Declared: int(byteCount), Actual: packedByteCount(qty)}
	}
	data, err := c.ReadBytes(int(byteCount))
	if err != nil {
		return nil, err
	}
	if err := c.ExpectEmpty(); err != nil {
		return nil, err
	}
	return build(newBitSequence(data, qty)), nil
}

func decodeReadRegistersResponse(c *ReadCursor, qty int, build func(RegisterSequence) Response) (Response, error) {
	byteCount, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	if int(byteCount) != qty*2 {
		return nil, &BadByteCountError{Declared: int(byteCount), Actual: qty * 2}
	}
	data, err := c.ReadBytes(int(byteCount))
	if err != nil {
		return nil, err
	}
	if err := c.ExpectEmpty(); err != nil {
		return nil, err
	}
	return build(newRegisterSequence(data)), nil
}

func decodeWriteSingleCoilResponse(c *ReadCursor) (Response, error) {
	addr, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	val, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	if err := c.ExpectEmpty(); err != nil {
		return nil, err
	}
	return &WriteSingleCoilResponse{Bit: Bit{Index: addr, Value: val == 0xFF00}}, nil
}

func decodeWriteSingleRegisterResponse(c *ReadCursor) (Response, error) {
	addr, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	val, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	if err := c.ExpectEmpty(); err != nil {
		return nil, err
	}
	return &WriteSingleRegisterResponse{Register: Register{Index: addr, Value: val}}, nil
}

func decodeWriteMultipleEcho(c *ReadCursor, build func(start, count uint16) Response) (Response, error) {
	start, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	count, err := c.ReadU16BE()
	if err != nil {
		return nil, err
	}
	if err := c.ExpectEmpty(); err != nil {
		return nil, err
	}
	return build(start, count), nil
}
