// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"bytes"
	"errors"
	"testing"
)

// TestRequestRoundTrip is invariant 1: decode_request(encode_request(R)) == R.
func TestRequestRoundTrip(t *testing.T) {
	rng, err := NewAddressRange(0x006B, 3)
	if err != nil {
		t.Fatal(err)
	}

	cases := []Request{
		mustReq(NewReadCoils(rng)),
		mustReq(NewReadDiscreteInputs(rng)),
		mustReq(NewReadHoldingRegisters(rng)),
		mustReq(NewReadInputRegisters(rng)),
		NewWriteSingleCoil(Bit{Index: 0x0013, Value: true}),
		NewWriteSingleRegister(Register{Index: 0x0001, Value: 0x1234}),
		mustReq(NewWriteMultipleCoils(0x0013, []bool{true, false, true, true, false, false, true, true, true, false})),
		mustReq(NewWriteMultipleRegisters(0x0001, []uint16{0x000A, 0x0102})),
	}

	for _, req := range cases {
		pdu, err := EncodeRequest(req)
		if err != nil {
			t.Fatalf("encode %T: %v", req, err)
		}
		got, err := DecodeRequest(pdu)
		if err != nil {
			t.Fatalf("decode %T: %v", req, err)
		}
		assertRequestsEqual(t, req, got)
	}
}

func mustReq[T Request](r T, err error) T {
	if err != nil {
		panic(err)
	}
	return r
}

func assertRequestsEqual(t *testing.T, want, got Request) {
	t.Helper()
	switch w := want.(type) {
	case *ReadCoilsRequest:
		g := got.(*ReadCoilsRequest)
		if w.Range != g.Range {
			t.Fatalf("ReadCoilsRequest mismatch: %+v vs %+v", w, g)
		}
	case *ReadDiscreteInputsRequest:
		g := got.(*ReadDiscreteInputsRequest)
		if w.Range != g.Range {
			t.Fatalf("ReadDiscreteInputsRequest mismatch: %+v vs %+v", w, g)
		}
	case *ReadHoldingRegistersRequest:
		g := got.(*ReadHoldingRegistersRequest)
		if w.Range != g.Range {
			t.Fatalf("ReadHoldingRegistersRequest mismatch: %+v vs %+v", w, g)
		}
	case *ReadInputRegistersRequest:
		g := got.(*ReadInputRegistersRequest)
		if w.Range != g.Range {
			t.Fatalf("ReadInputRegistersRequest mismatch: %+v vs %+v", w, g)
		}
	case *WriteSingleCoilRequest:
		g := got.(*WriteSingleCoilRequest)
		if w.Bit != g.Bit {
			t.Fatalf("WriteSingleCoilRequest mismatch: %+v vs %+v", w, g)
		}
	case *WriteSingleRegisterRequest:
		g := got.(*WriteSingleRegisterRequest)
		if w.Register != g.Register {
			t.Fatalf("WriteSingleRegisterRequest mismatch: %+v vs %+v", w, g)
		}
	case *WriteMultipleCoilsRequest:
		g := got.(*WriteMultipleCoilsRequest)
		if w.Start != g.Start || !boolsEqual(w.Values, g.Values) {
			t.Fatalf("WriteMultipleCoilsRequest mismatch: %+v vs %+v", w, g)
		}
	case *WriteMultipleRegistersRequest:
		g := got.(*WriteMultipleRegistersRequest)
		if w.Start != g.Start || !uint16sEqual(w.Values, g.Values) {
			t.Fatalf("WriteMultipleRegistersRequest mismatch: %+v vs %+v", w, g)
		}
	default:
		t.Fatalf("unhandled request type %T", w)
	}
}

func boolsEqual(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func uint16sEqual(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestReadCountValidation is invariant 4: qty=0 or qty>max fails with
// ErrInvalidRequest and never reaches the encoder.
func TestReadCountValidation(t *testing.T) {
	cases := []struct {
		name string
		fn   func() error
	}{
		{"coils zero", func() error { _, err := NewAddressRange(0, 0); return err }},
		{"coils too many", func() error {
			rng, err := NewAddressRange(0, 2001)
			if err != nil {
				return err
			}
			_, err = NewReadCoils(rng)
			return err
		}},
		{"holding registers too many", func() error {
			rng, err := NewAddressRange(0, 126)
			if err != nil {
				return err
			}
			_, err = NewReadHoldingRegisters(rng)
			return err
		}},
		{"write multiple coils too many", func() error {
			_, err := NewWriteMultipleCoils(0, make([]bool, 1969))
			return err
		}},
		{"write multiple registers empty", func() error {
			_, err := NewWriteMultipleRegisters(0, nil)
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

// TestScenarioS1 checks the literal wire bytes from §8 scenario S1.
func TestScenarioS1(t *testing.T) {
	rng, err := NewAddressRange(0x006B, 3)
	if err != nil {
		t.Fatal(err)
	}
	req, err := NewReadHoldingRegisters(rng)
	if err != nil {
		t.Fatal(err)
	}
	pdu, err := EncodeRequest(req)
	if err != nil {
		t.Fatal(err)
	}
	frame, err := EncodeFrame(0x0001, 0x11, pdu)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x06, 0x11, 0x03, 0x00, 0x6B, 0x00, 0x03}
	if !bytes.Equal(frame, want) {
		t.Fatalf("frame = % X, want % X", frame, want)
	}

	respPDU := []byte{0x03, 0x06, 0x02, 0x2B, 0x00, 0x00, 0x00, 0x64}
	resp, err := DecodeResponse(req, respPDU)
	if err != nil {
		t.Fatal(err)
	}
	rr := resp.(*ReadHoldingRegistersResponse)
	want16 := []uint16{0x022B, 0x0000, 0x0064}
	if !uint16sEqual(rr.Registers.Slice(), want16) {
		t.Fatalf("registers = %v, want %v", rr.Registers.Slice(), want16)
	}
}

// TestScenarioS2 checks the exception passthrough scenario.
func TestScenarioS2(t *testing.T) {
	rng, err := NewAddressRange(0x0000, 1)
	if err != nil {
		t.Fatal(err)
	}
	req, err := NewReadHoldingRegisters(rng)
	if err != nil {
		t.Fatal(err)
	}
	respPDU := []byte{0x83, 0x02}
	_, err = DecodeResponse(req, respPDU)
	var exc *ModbusException
	if !errors.As(err, &exc) {
		t.Fatalf("expected ModbusException, got %v", err)
	}
	if exc.Code != ExceptionIllegalDataAddress || exc.Raw != 2 {
		t.Fatalf("unexpected exception: %+v", exc)
	}
}

// TestScenarioS3 checks the write-multiple-coils wire bytes.
func TestScenarioS3(t *testing.T) {
	req, err := NewWriteMultipleCoils(0x0013, []bool{true, false, true, true, false, false, true, true, true, false})
	if err != nil {
		t.Fatal(err)
	}
	pdu, err := EncodeRequest(req)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x0F, 0x00, 0x13, 0x00, 0x0A, 0x02, 0xCD, 0x01}
	if !bytes.Equal(pdu, want) {
		t.Fatalf("pdu = % X, want % X", pdu, want)
	}

	respPDU := []byte{0x0F, 0x00, 0x13, 0x00, 0x0A}
	resp, err := DecodeResponse(req, respPDU)
	if err != nil {
		t.Fatal(err)
	}
	wr := resp.(*WriteMultipleCoilsResponse)
	if wr.Start != 0x0013 || wr.Count != 0x000A {
		t.Fatalf("unexpected response: %+v", wr)
	}
}

func TestDecodeRequestBadFunctionCode(t *testing.T) {
	_, err := DecodeRequest([]byte{0x99, 0x00})
	var bad *BadFunctionCodeError
	if !errors.As(err, &bad) {
		t.Fatalf("expected BadFunctionCodeError, got %v", err)
	}
}

func TestDecodeRequestTrailingBytes(t *testing.T) {
	_, err := DecodeRequest([]byte{0x03, 0x00, 0x00, 0x00, 0x01, 0xFF})
	var trailing *TrailingBytesError
	if !errors.As(err, &trailing) {
		t.Fatalf("expected TrailingBytesError, got %v", err)
	}
}
