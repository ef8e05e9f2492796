// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package rtu

import (
	"io"

	"github.com/ffutop/modbus-core/modbus"
)

// bodyLength reports how many PDU body bytes follow the function code,
// given the bytes already read of that body. ok is false when not
// enough of the body has been read yet to know the length, which happens
// for the byte-count-prefixed shapes (read responses and write-multiple
// requests), and always for an unrecognized function code.
func bodyLength(isRequest bool, fc modbus.FunctionCode, body []byte) (length int, ok bool) {
	if fc.IsException() {
		return 1, true
	}
	switch fc.Underlying() {
	case modbus.FuncCodeReadCoils, modbus.FuncCodeReadDiscreteInputs,
		modbus.FuncCodeReadHoldingRegisters, modbus.FuncCodeReadInputRegisters:
		if isRequest {
			return 4, true // addr(2) + qty(2)
		}
		if len(body) < 1 {
			return 0, false
		}
		return 1 + int(body[0]), true // byteCount(1) + data

	case modbus.FuncCodeWriteSingleCoil, modbus.FuncCodeWriteSingleRegister:
		return 4, true // addr(2) + value(2), same on request and response

	case modbus.FuncCodeWriteMultipleCoils, modbus.FuncCodeWriteMultipleRegisters:
		if !isRequest {
			return 4, true // addr(2) + qty(2) echo
		}
		if len(body) < 5 {
			return 0, false
		}
		return 5 + int(body[4]), true // addr(2) + qty(2) + byteCount(1) + data

	default:
		return 0, false
	}
}

// readADU reads one complete RTU ADU (unit id, function code, body, CRC)
// from r one byte at a time, using bodyLength to know when the frame is
// complete, so reading stops exactly at the frame's end and never waits
// for bytes beyond it. A truncated frame blocks until r returns an error;
// a frame whose length cannot be determined fails with FrameTooLargeError
// once MaxADUSize bytes have been read.
func readADU(r io.Reader, isRequest bool) ([]byte, error) {
	one := make([]byte, 1)
	readByte := func() (byte, error) {
		if _, err := io.ReadFull(r, one); err != nil {
			return 0, err
		}
		return one[0], nil
	}

	buf := make([]byte, 0, MaxADUSize)
	for len(buf) < 2 {
		b, err := readByte()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b)
	}
	fc := modbus.FunctionCode(buf[1])

	for {
		bodyLen, ok := bodyLength(isRequest, fc, buf[2:])
		if ok {
			want := 2 + bodyLen + 2 // header + body + crc
			if len(buf) >= want {
				return buf[:want], nil
			}
		}
		if len(buf) >= MaxADUSize {
			return nil, &FrameTooLargeError{}
		}
		b, err := readByte()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b)
	}
}

// ReadRequestADU reads one complete RTU request ADU from r.
func ReadRequestADU(r io.Reader) ([]byte, error) {
	return readADU(r, true)
}

// ReadResponseADU reads one complete RTU response ADU from r.
func ReadResponseADU(r io.Reader) ([]byte, error) {
	return readADU(r, false)
}
