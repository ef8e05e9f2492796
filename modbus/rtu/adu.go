// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package rtu implements Modbus RTU framing: a unit id and PDU wrapped
// in a trailing CRC-16/MODBUS instead of MBAP's TCP header, for use over
// a serial line. It shares its request/response PDU codec with package
// modbus and adds only what RTU frames on top of that PDU.
package rtu

import (
	"fmt"

	"github.com/ffutop/modbus-core/modbus"
	"github.com/ffutop/modbus-core/modbus/crc"
)

// MinADUSize is the smallest possible RTU ADU: unit id, one PDU byte,
// and a two-byte CRC.
const MinADUSize = 4

// MaxADUSize bounds the RTU ADU the way MaxADUSize bounds the MBAP ADU
// in package modbus, plus the unit id byte MBAP carries in its header
// instead of the frame body.
const MaxADUSize = 1 + modbus.MaxPDUSize + 2

// BadCRCError is returned when a decoded ADU's trailing CRC does not
// match its computed one.
type BadCRCError struct {
	Want, Got uint16
}

func (e *BadCRCError) Error() string {
	return fmt.Sprintf("rtu: crc mismatch: computed 0x%04X, received 0x%04X", e.Want, e.Got)
}

// FrameTooLargeError is returned when a frame under construction exceeds
// MaxADUSize before its expected length is known to be complete.
type FrameTooLargeError struct{}

func (e *FrameTooLargeError) Error() string {
	return "rtu: frame exceeds maximum ADU size"
}

// EncodeADU wraps pdu (function code + body) in a unit id and a
// CRC-16/MODBUS, sent low byte first as the wire format requires.
func EncodeADU(unitID byte, pdu []byte) []byte {
	adu := make([]byte, 0, 1+len(pdu)+2)
	adu = append(adu, unitID)
	adu = append(adu, pdu...)
	var c crc.CRC
	c.Reset().PushBytes(adu)
	v := c.Value()
	return append(adu, byte(v), byte(v>>8))
}

// DecodeADU splits a complete RTU ADU into its unit id and PDU, verifying
// the trailing CRC.
func DecodeADU(adu []byte) (unitID byte, pdu []byte, err error) {
	if len(adu) < MinADUSize {
		return 0, nil, &modbus.InsufficientBytesError{Wanted: MinADUSize, Available: len(adu)}
	}
	body := adu[:len(adu)-2]
	var c crc.CRC
	c.Reset().PushBytes(body)
	want := c.Value()
	got := uint16(adu[len(adu)-2]) | uint16(adu[len(adu)-1])<<8
	if want != got {
		return 0, nil, &BadCRCError{Want: want, Got: got}
	}
	return body[0], body[1:], nil
}
