// Package fec implements a forward-error-correction writer for block codes.
//
// The writer groups outgoing media packets into fixed-size blocks and
// derives redundant repair packets for each block through a pluggable
// BlockEncoder. Source and repair packets are emitted as two interleaved
// streams to a downstream packet writer.
package fec

import (
	"fmt"

	"github.com/fecstream/fecstream/packet"
)

//go:generate go run go.uber.org/mock/mockgen -package fec -self_package github.com/fecstream/fecstream/fec -destination mock_block_encoder_test.go github.com/fecstream/fecstream/fec BlockEncoder

// BlockEncoder computes the repair payloads of one block. It carries no
// per-block state of its own: everything it needs is passed to Encode.
type BlockEncoder interface {
	// MaxBlockLength returns the maximum total number of packets
	// (source plus repair) the scheme supports in one block.
	MaxBlockLength() int

	// Encode fills the pre-allocated repair buffers with redundancy
	// computed over the source buffers. All source buffers must have
	// equal length, and every repair buffer must have that same length.
	// A failure indicates encoder misconfiguration, not routine input.
	Encode(source [][]byte, repair [][]byte) error
}

// NewBlockEncoder creates the encoder for the given scheme ID.
func NewBlockEncoder(scheme packet.SchemeID) (BlockEncoder, error) {
	switch scheme {
	case packet.SchemeXOR:
		return &xorEncoder{}, nil
	case packet.SchemeRS:
		return &reedSolomonEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown FEC scheme: %d", scheme)
	}
}

func validateBuffers(source [][]byte, repair [][]byte) error {
	if len(source) == 0 || len(repair) == 0 {
		return fmt.Errorf("need at least one source and one repair buffer, got %d and %d", len(source), len(repair))
	}
	size := len(source[0])
	if size == 0 {
		return fmt.Errorf("source buffers must be non-empty")
	}
	for i, b := range source {
		if len(b) != size {
			return fmt.Errorf("source buffer %d has length %d, expecting %d", i, len(b), size)
		}
	}
	for i, b := range repair {
		if len(b) != size {
			return fmt.Errorf("repair buffer %d has length %d, expecting %d", i, len(b), size)
		}
	}
	return nil
}
