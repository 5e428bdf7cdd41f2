// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

// CallContext identifies the message currently invoking a destination
// target. The bridge assigns it immediately before the destination call
// and restores the sentinel on every exit path, so a target observing the
// sentinel knows it is not being invoked by the bridge.
type CallContext struct {
	MsgHash    ids.ID
	From       common.Address
	SrcChainID ids.ID
}

// sentinelCallContext is all ones rather than all zeros so that an empty
// slot can never be confused with a real context.
var sentinelCallContext = CallContext{
	MsgHash:    allOnesID(),
	From:       common.Address{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	SrcChainID: allOnesID(),
}

func allOnesID() ids.ID {
	var id ids.ID
	for i := range id {
		id[i] = 0xff
	}
	return id
}

// Valid returns false for the sentinel context
func (c CallContext) Valid() bool {
	return c != sentinelCallContext
}
