// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package server implements a Modbus TCP server: a listener that
// accepts sessions, decodes requests, dispatches them to a Handler by
// unit id, and writes back responses in receipt order.
package server

// Config configures a Server (§6 "Configuration options", server scope).
type Config struct {
	// Address is the host:port the listener binds.
	Address string
	// MaxSessions bounds concurrent connections. Zero means unbounded.
	MaxSessions int
}
