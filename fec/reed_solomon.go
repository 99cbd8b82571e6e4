package fec

import (
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// reedSolomonEncoder computes repair payloads with a systematic
// Reed-Solomon code over GF(2^8). The underlying codec is parameterized by
// block geometry, so it is rebuilt whenever the geometry changes; geometry
// changes only happen at block boundaries after a resize, never per packet.
type reedSolomonEncoder struct {
	enc          reedsolomon.Encoder
	dataShards   int
	parityShards int

	shards [][]byte
}

// NewReedSolomonEncoder creates a BlockEncoder for packet.SchemeRS.
func NewReedSolomonEncoder() BlockEncoder {
	return &reedSolomonEncoder{}
}

func (e *reedSolomonEncoder) MaxBlockLength() int {
	// GF(2^8) limit for total shard count.
	return 256
}

func (e *reedSolomonEncoder) Encode(source [][]byte, repair [][]byte) error {
	if err := validateBuffers(source, repair); err != nil {
		return err
	}
	if len(source)+len(repair) > e.MaxBlockLength() {
		return fmt.Errorf("block of %d source and %d repair packets exceeds the Reed-Solomon limit of %d shards",
			len(source), len(repair), e.MaxBlockLength())
	}

	if e.enc == nil || e.dataShards != len(source) || e.parityShards != len(repair) {
		enc, err := reedsolomon.New(len(source), len(repair))
		if err != nil {
			return fmt.Errorf("creating Reed-Solomon codec: %w", err)
		}
		e.enc = enc
		e.dataShards = len(source)
		e.parityShards = len(repair)
	}

	if cap(e.shards) < len(source)+len(repair) {
		e.shards = make([][]byte, 0, len(source)+len(repair))
	}
	e.shards = e.shards[:0]
	e.shards = append(e.shards, source...)
	e.shards = append(e.shards, repair...)

	if err := e.enc.Encode(e.shards); err != nil {
		return fmt.Errorf("computing parity shards: %w", err)
	}
	return nil
}
