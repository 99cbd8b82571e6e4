// Package packet defines the packet model shared by the FEC writer and its
// collaborators: factories, composers, and downstream writers.
package packet

// SeqNum is a 16-bit stream sequence number, wrapping around like an RTP
// sequence number. Source and repair streams use independent counter spaces.
type SeqNum uint16

// BlockNum identifies the FEC block a packet belongs to. It wraps around.
type BlockNum uint16

// Timestamp is a 32-bit stream timestamp in sample-rate units, wrapping
// around like an RTP timestamp.
type Timestamp uint32

// TimestampDiff is a signed difference between two stream timestamps.
type TimestampDiff int32

// SubTimestamps returns a-b, accounting for wraparound.
func SubTimestamps(a, b Timestamp) TimestampDiff {
	return TimestampDiff(a - b)
}

// SchemeID identifies the FEC scheme used to produce a block's repair
// packets. The receiver needs it to pick the matching decoder.
type SchemeID byte

const (
	SchemeDisabled SchemeID = 0
	SchemeXOR      SchemeID = 1
	SchemeRS       SchemeID = 2
)

func (s SchemeID) String() string {
	switch s {
	case SchemeXOR:
		return "XOR"
	case SchemeRS:
		return "ReedSolomon"
	default:
		return "unknown"
	}
}

// FEC holds the block metadata stamped onto every packet of a FEC-protected
// stream. All packets of one block carry the same BlockNum, SourceBlockLen,
// and RepairBlockLen.
type FEC struct {
	Scheme SchemeID
	// BlockNum is the sequence number of the block.
	BlockNum BlockNum
	// BlockIndex is the packet's position within the block: source packets
	// occupy [0, SourceBlockLen), repair packets
	// [SourceBlockLen, SourceBlockLen+RepairBlockLen).
	BlockIndex int
	// SourceBlockLen is the number of source packets in the block.
	SourceBlockLen int
	// RepairBlockLen is the number of repair packets in the block.
	RepairBlockLen int
}

// Packet is a single media or repair packet.
//
// Payload is the raw media (or redundancy) bytes. Wire is filled by a
// Composer with the serialized header+payload form that the downstream
// writer transmits.
type Packet struct {
	SeqNum    SeqNum
	Timestamp Timestamp

	Payload []byte
	Wire    []byte

	// FEC is nil until the packet is annotated with block metadata.
	FEC *FEC

	fromPool bool
	fecStore FEC
}

// Reset clears the packet for reuse, keeping allocated capacity.
func (p *Packet) Reset() {
	p.SeqNum = 0
	p.Timestamp = 0
	p.Payload = p.Payload[:0]
	p.Wire = p.Wire[:0]
	p.FEC = nil
	p.fecStore = FEC{}
}

// StampFEC attaches block metadata to the packet without allocating.
func (p *Packet) StampFEC(f FEC) {
	p.fecStore = f
	p.FEC = &p.fecStore
}
