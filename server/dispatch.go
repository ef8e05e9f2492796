// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package server

import (
	"errors"

	"github.com/ffutop/modbus-core/modbus"
)

// dispatch decodes and answers one request PDU. hasResponse is false
// only for a broadcast write (unit id 0), which the protocol defines as
// fire-and-forget.
func (s *Server) dispatch(frame *modbus.Frame) (pdu []byte, hasResponse bool) {
	req, err := modbus.DecodeRequest(frame.PDU)
	if err != nil {
		return MalformedRequestResponse(frame.PDU, err), true
	}

	broadcast := frame.Header.UnitID == 0
	if broadcast && IsReadRequest(req) {
		return modbus.EncodeExceptionResponse(req.FunctionCode(), modbus.ExceptionIllegalFunction), true
	}

	resp, exc := Dispatch(s.handler, frame.Header.UnitID, req)
	if broadcast {
		return nil, false
	}
	if exc != 0 {
		return modbus.EncodeExceptionResponse(req.FunctionCode(), exc), true
	}

	respPDU, err := modbus.EncodeResponse(resp)
	if err != nil {
		s.log.Error("modbus server: failed to encode response body", "error", err)
		return modbus.EncodeExceptionResponse(req.FunctionCode(), modbus.ExceptionServerDeviceFailure), true
	}
	return respPDU, true
}

// MalformedRequestResponse builds the exception PDU for a request PDU
// that failed to decode. It is exported so other transports (RTU) that
// frame the same PDU differently can answer the same way.
func MalformedRequestResponse(pdu []byte, err error) []byte {
	fc := modbus.FunctionCode(0)
	if len(pdu) > 0 {
		fc = modbus.FunctionCode(pdu[0])
	}
	var bad *modbus.BadFunctionCodeError
	if errors.As(err, &bad) {
		return modbus.EncodeExceptionResponse(bad.Got, modbus.ExceptionIllegalFunction)
	}
	return modbus.EncodeExceptionResponse(fc, modbus.ExceptionIllegalDataValue)
}

// IsReadRequest reports whether req is one of the four read operations,
// which the broadcast unit id (0) rejects outright since a read has
// nobody to answer.
func IsReadRequest(req modbus.Request) bool {
	switch req.(type) {
	case *modbus.ReadCoilsRequest, *modbus.ReadDiscreteInputsRequest,
		*modbus.ReadHoldingRegistersRequest, *modbus.ReadInputRegistersRequest:
		return true
	default:
		return false
	}
}

// Dispatch calls the Handler method matching req's concrete type and
// wraps its result in the matching Response type. It is the shared
// request/response mapping every transport (TCP, RTU) drives.
func Dispatch(h Handler, unitID byte, req modbus.Request) (modbus.Response, modbus.ExceptionCode) {
	switch r := req.(type) {
	case *modbus.ReadCoilsRequest:
		bits, exc := h.ReadCoils(unitID, r.Range)
		if exc != 0 {
			return nil, exc
		}
		return &modbus.ReadCoilsResponse{Bits: bits}, 0

	case *modbus.ReadDiscreteInputsRequest:
		bits, exc := h.ReadDiscreteInputs(unitID, r.Range)
		if exc != 0 {
			return nil, exc
		}
		return &modbus.ReadDiscreteInputsResponse{Bits: bits}, 0

	case *modbus.ReadHoldingRegistersRequest:
		regs, exc := h.ReadHoldingRegisters(unitID, r.Range)
		if exc != 0 {
			return nil, exc
		}
		return &modbus.ReadHoldingRegistersResponse{Registers: regs}, 0

	case *modbus.ReadInputRegistersRequest:
		regs, exc := h.ReadInputRegisters(unitID, r.Range)
		if exc != 0 {
			return nil, exc
		}
		return &modbus.ReadInputRegistersResponse{Registers: regs}, 0

	case *modbus.WriteSingleCoilRequest:
		if exc := h.WriteSingleCoil(unitID, r.Bit); exc != 0 {
			return nil, exc
		}
		return &modbus.WriteSingleCoilResponse{Bit: r.Bit}, 0

	case *modbus.WriteSingleRegisterRequest:
		if exc := h.WriteSingleRegister(unitID, r.Register); exc != 0 {
			return nil, exc
		}
		return &modbus.WriteSingleRegisterResponse{Register: r.Register}, 0

	case *modbus.WriteMultipleCoilsRequest:
		if exc := h.WriteMultipleCoils(unitID, r.Start, r.Values); exc != 0 {
			return nil, exc
		}
		return &modbus.WriteMultipleCoilsResponse{Start: r.Start, Count: uint16(len(r.Values))}, 0

	case *modbus.WriteMultipleRegistersRequest:
		if exc := h.WriteMultipleRegisters(unitID, r.Start, r.Values); exc != 0 {
			return nil, exc
		}
		return &modbus.WriteMultipleRegistersResponse{Start: r.Start, Count: uint16(len(r.Values))}, 0

	default:
		return nil, modbus.ExceptionIllegalFunction
	}
}
