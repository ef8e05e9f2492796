// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package client

import (
	"time"

	"github.com/ffutop/modbus-core/modbus"
)

// Result is delivered to a request's resultCh exactly once.
type Result struct {
	Response modbus.Response
	Err      error
}

// pendingRequest tracks one in-flight request. It lives entirely inside
// the owning session goroutine; nothing else touches it, so it carries
// no lock.
type pendingRequest struct {
	unitID   byte
	request  modbus.Request
	resultCh chan Result
	timer    *time.Timer
	// timedOut marks a slot whose deadline already fired. The tx id
	// stays reserved until a late frame arrives and is discarded, or
	// the connection resets.
	timedOut bool
}

func (p *pendingRequest) deliver(res Result) {
	select {
	case p.resultCh <- res:
	default:
	}
}

// txAllocator hands out transaction ids that are not currently reserved
// in the pending map. 65536 possible ids makes exhaustion a practical
// non-issue; the bounded scan below simply documents that the space is
// finite rather than pretending it is not.
type txAllocator struct {
	next uint16
}

func (a *txAllocator) allocate(pending map[uint16]*pendingRequest) (uint16, bool) {
	for i := 0; i < 1<<16; i++ {
		id := a.next
		a.next++
		if _, taken := pending[id]; !taken {
			return id, true
		}
	}
	return 0, false
}
