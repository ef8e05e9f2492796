// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

// mbapHeaderLength is the fixed size of an MBAP header: tx_id(2) +
// protocol_id(2) + length(2) + unit_id(1).
const mbapHeaderLength = 7

// FrameHeader is the decoded MBAP header (§3).
type FrameHeader struct {
	TxID       uint16
	ProtocolID uint16
	Length     uint16
	UnitID     byte
}

// Frame is a decoded MBAP frame: header plus the PDU bytes that followed
// it (function code + body, still undecoded).
type Frame struct {
	Header FrameHeader
	PDU    []byte
}

// EncodeFrame wraps pdu in an MBAP header addressed to unitID under txID.
// It refuses PDUs over MaxPDUSize bytes, per §4.2.
func EncodeFrame(txID uint16, unitID byte, pdu []byte) ([]byte, error) {
	if len(pdu) < 1 || len(pdu) > MaxPDUSize {
		return nil, &BufferFullError{Wanted: len(pdu), Capacity: MaxPDUSize}
	}
	c := NewWriteCursor(mbapHeaderLength + len(pdu))
	_ = c.WriteU16BE(txID)
	_ = c.WriteU16BE(0) // protocol_id
	_ = c.WriteU16BE(uint16(1 + len(pdu)))
	_ = c.WriteU8(unitID)
	_ = c.WriteBytes(pdu)
	return c.Bytes(), nil
}

// DecodeFrame parses at most one frame from the front of data. If data
// does not yet contain a complete frame it returns needMore=true and a nil
// frame/error: the caller should read more bytes and try again. A non-nil
// error is fatal for the connection the bytes came from (§4.2).
func DecodeFrame(data []byte) (frame *Frame, consumed int, needMore bool, err error) {
	if len(data) < mbapHeaderLength {
		return nil, 0, true, nil
	}

	c := NewReadCursor(data[:mbapHeaderLength])
	txID, _ := c.ReadU16BE()
	protocolID, _ := c.ReadU16BE()
	length, _ := c.ReadU16BE()
	unitID, _ := c.ReadU8()

	if protocolID != 0 {
		return nil, 0, false, &FrameError{Kind: BadProtocolID, Value: int(protocolID)}
	}
	if length < 2 || length > 254 {
		return nil, 0, false, &FrameError{Kind: BadLength, Value: int(length)}
	}

	bodyLen := int(length) - 1
	total := mbapHeaderLength + bodyLen
	if len(data) < total {
		return nil, 0, true, nil
	}

	pdu := make([]byte, bodyLen)
	copy(pdu, data[mbapHeaderLength:total])

	return &Frame{
		Header: FrameHeader{TxID: txID, ProtocolID: protocolID, Length: length, UnitID: unitID},
		PDU:    pdu,
	}, total, false, nil
}
