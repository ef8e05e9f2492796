// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package serial adapts a grid-x/serial line to the RTU ADU codec in
// package rtu, providing a synchronous Modbus RTU client and a serial
// Modbus RTU server.
package serial

import "time"

// Config carries the serial line parameters, passed straight through to
// grid-x/serial.Config.
type Config struct {
	// Device is the serial device path, e.g. /dev/ttyUSB0 or COM3.
	Device   string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
	// Timeout bounds a single Read call on the port.
	Timeout time.Duration
}
