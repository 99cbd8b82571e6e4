// Package logging provides an event tracer for the FEC send path.
//
// The data path itself never logs; components emit structured events to an
// optional Tracer instead, so that observability has zero cost when it is
// not wired up.
package logging

import "github.com/fecstream/fecstream/packet"

// Tracer is notified about FEC writer events. Implementations must not
// block: callbacks run synchronously on the packet hot path.
type Tracer interface {
	// StartedBlock is called when the first source packet of a block is
	// accepted.
	StartedBlock(sbn packet.BlockNum, sblen, rblen int)
	// CompletedBlock is called after all of a block's source and repair
	// packets have been written downstream.
	CompletedBlock(sbn packet.BlockNum)
	// Resized is called when a new block geometry has been scheduled.
	Resized(sblen, rblen int)
	// Closed is called once when the writer becomes permanently dead.
	Closed(err error)
}
