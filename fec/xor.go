package fec

import "fmt"

// xorEncoder derives a single repair packet as the XOR of all source
// packets in the block. It only supports blocks with exactly one repair
// packet: recovering more than one loss needs a stronger code.
type xorEncoder struct{}

// NewXOREncoder creates a BlockEncoder for packet.SchemeXOR.
func NewXOREncoder() BlockEncoder {
	return &xorEncoder{}
}

func (e *xorEncoder) MaxBlockLength() int {
	// One repair packet plus as many source packets as the block counter
	// can address.
	return 1 << 16
}

func (e *xorEncoder) Encode(source [][]byte, repair [][]byte) error {
	if err := validateBuffers(source, repair); err != nil {
		return err
	}
	if len(repair) != 1 {
		return fmt.Errorf("xor only supports a (k+1, k) scheme, requested %d repair buffers", len(repair))
	}

	out := repair[0]
	copy(out, source[0])
	for _, in := range source[1:] {
		xorBytes(out, in)
	}
	return nil
}

func xorBytes(dst, src []byte) {
	for i := range src {
		dst[i] ^= src[i]
	}
}
