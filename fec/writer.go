package fec

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/fecstream/fecstream/logging"
	"github.com/fecstream/fecstream/packet"
)

var (
	// ErrClosed is returned by Write after the writer has become
	// permanently dead. A dead writer never touches its collaborators.
	ErrClosed = errors.New("fec: writer is no longer alive")

	// ErrInvalidPayload is returned for source packets with an empty
	// payload or a payload size differing from the current block's.
	ErrInvalidPayload = errors.New("fec: invalid source packet payload")

	// ErrInvalidConfig is returned for block geometries the encoder
	// can't support.
	ErrInvalidConfig = errors.New("fec: invalid block geometry")
)

// WriterConfig holds FEC writer parameters.
type WriterConfig struct {
	// SourceBlockLen is the number of media packets per block.
	SourceBlockLen int
	// RepairBlockLen is the number of repair packets per block.
	RepairBlockLen int
	// Tracer, if not nil, is notified about writer events.
	Tracer logging.Tracer
}

func (c *WriterConfig) applyDefaults() {
	if c.SourceBlockLen == 0 {
		c.SourceBlockLen = 18
	}
	if c.RepairBlockLen == 0 {
		c.RepairBlockLen = 10
	}
}

// Writer is a packet writer that adds forward error correction to a media
// stream.
//
// Every media packet passed to Write is annotated with block metadata,
// composed, and immediately handed to the downstream writer; media traffic
// is never delayed for the sake of a block. Whenever a block fills up, the
// writer synthesizes the block's repair packets via the BlockEncoder and
// writes them downstream before the next block starts, so the downstream
// stream is: block 0 sources, block 0 repairs, block 1 sources, ...
//
// Writer is driven by a single producer goroutine; it is not safe for
// concurrent use.
type Writer struct {
	curSBLen  int
	nextSBLen int

	curRBLen  int
	nextRBLen int

	curPayloadSize int

	encoder        BlockEncoder
	out            packet.Writer
	sourceComposer packet.Composer
	repairComposer packet.Composer
	packetFactory  packet.Factory
	bufferFactory  packet.BufferFactory
	tracer         logging.Tracer

	// Per-slot copies of the current block's source payloads, owned by the
	// writer and reused across blocks.
	sourceBuffers [][]byte
	// Pending repair packets of the current block, cleared at each block
	// boundary with the slot array kept for reuse.
	repairBlock []*packet.Packet

	firstPacket bool
	alive       bool

	curSBN      packet.BlockNum
	curRepairSN packet.SeqNum
	curPacket   int

	scheme packet.SchemeID

	prevBlockTimestampValid bool
	prevBlockTimestamp      packet.Timestamp
	blockMaxDurationValid   bool
	blockMaxDuration        packet.TimestampDiff
}

var _ packet.Writer = &Writer{}

// NewWriter creates a FEC writer.
//
//   - cfg holds the block geometry
//   - scheme is the FEC codec ID stamped onto repair packets
//   - encoder is the FEC codec implementation
//   - out receives the composed source and repair packets
//   - sourceComposer and repairComposer serialize the two streams
//   - packetFactory and bufferFactory allocate repair packets
func NewWriter(
	cfg WriterConfig,
	scheme packet.SchemeID,
	encoder BlockEncoder,
	out packet.Writer,
	sourceComposer packet.Composer,
	repairComposer packet.Composer,
	packetFactory packet.Factory,
	bufferFactory packet.BufferFactory,
) (*Writer, error) {
	cfg.applyDefaults()
	if encoder == nil || out == nil || sourceComposer == nil || repairComposer == nil ||
		packetFactory == nil || bufferFactory == nil {
		return nil, errors.New("fec: writer created with a nil collaborator")
	}
	if err := validateGeometry(cfg.SourceBlockLen, cfg.RepairBlockLen, encoder); err != nil {
		return nil, err
	}
	return &Writer{
		nextSBLen:      cfg.SourceBlockLen,
		nextRBLen:      cfg.RepairBlockLen,
		encoder:        encoder,
		out:            out,
		sourceComposer: sourceComposer,
		repairComposer: repairComposer,
		packetFactory:  packetFactory,
		bufferFactory:  bufferFactory,
		tracer:         cfg.Tracer,
		firstPacket:    true,
		alive:          true,
		curRepairSN:    packet.SeqNum(rand.Uint32()),
		scheme:         scheme,
	}, nil
}

// Alive reports whether the writer still accepts packets. Once false it
// never becomes true again.
func (w *Writer) Alive() bool {
	return w.alive
}

// MaxBlockDuration returns the maximal duration between the first packets
// of two consecutive blocks seen since the last resize. ok is false until
// two blocks have started since then.
func (w *Writer) MaxBlockDuration() (d packet.TimestampDiff, ok bool) {
	if !w.blockMaxDurationValid {
		return 0, false
	}
	return w.blockMaxDuration, true
}

// Resize schedules a new block geometry. The change takes effect at the
// next block boundary: a block in progress always completes with the
// geometry it started with, since all packets of one block must carry
// identical metadata for the receiver to reassemble it.
//
// Out-of-range geometry is rejected here rather than at the boundary, so
// the error surfaces at the call that caused it.
func (w *Writer) Resize(sblen, rblen int) error {
	if !w.alive {
		return ErrClosed
	}
	if err := validateGeometry(sblen, rblen, w.encoder); err != nil {
		return err
	}
	w.nextSBLen = sblen
	w.nextRBLen = rblen

	// Changing geometry invalidates the duration baseline.
	w.prevBlockTimestampValid = false
	w.blockMaxDurationValid = false
	w.blockMaxDuration = 0

	if w.tracer != nil {
		w.tracer.Resized(sblen, rblen)
	}
	return nil
}

func validateGeometry(sblen, rblen int, encoder BlockEncoder) error {
	if sblen <= 0 || rblen <= 0 {
		return fmt.Errorf("%w: sblen=%d rblen=%d, both must be positive", ErrInvalidConfig, sblen, rblen)
	}
	if maxLen := encoder.MaxBlockLength(); sblen+rblen > maxLen {
		return fmt.Errorf("%w: sblen=%d rblen=%d, scheme supports at most %d packets per block",
			ErrInvalidConfig, sblen, rblen, maxLen)
	}
	return nil
}

// Write accepts one source packet, writes it downstream, and, when the
// packet completes a block, synthesizes and writes the block's repair
// packets.
//
// The packet is borrowed for the duration of the call: the writer copies
// out what it needs and keeps no reference after returning.
//
// An allocation or collaborator failure during repair synthesis kills the
// writer permanently even though the triggering source packet has already
// been written downstream. Callers must treat such an error as fatal to
// the stream.
func (w *Writer) Write(p *packet.Packet) error {
	if !w.alive {
		return ErrClosed
	}
	if err := w.validateSourcePacket(p); err != nil {
		return err
	}
	if w.curPacket == 0 {
		w.beginBlock(p)
	}
	if err := w.writeSourcePacket(p); err != nil {
		return err
	}
	w.curPacket++

	if w.curPacket == w.curSBLen {
		if err := w.endBlock(); err != nil {
			w.die(err)
			return err
		}
		w.nextBlock()
	}
	return nil
}

func (w *Writer) die(err error) {
	w.alive = false
	if w.tracer != nil {
		w.tracer.Closed(err)
	}
}

// beginBlock starts a new block on its first source packet: pending
// geometry is applied and the block's payload size is established from the
// packet.
func (w *Writer) beginBlock(p *packet.Packet) {
	w.updateBlockDuration(p)
	w.applySizes(w.nextSBLen, w.nextRBLen, len(p.Payload))
	w.firstPacket = false
	if w.tracer != nil {
		w.tracer.StartedBlock(w.curSBN, w.curSBLen, w.curRBLen)
	}
}

func (w *Writer) applySizes(sblen, rblen, payloadSize int) {
	if cap(w.sourceBuffers) < sblen {
		w.sourceBuffers = make([][]byte, sblen)
	}
	w.sourceBuffers = w.sourceBuffers[:sblen]

	if cap(w.repairBlock) < rblen {
		w.repairBlock = make([]*packet.Packet, rblen)
	}
	w.repairBlock = w.repairBlock[:rblen]

	w.curSBLen = sblen
	w.curRBLen = rblen
	w.curPayloadSize = payloadSize
}

func (w *Writer) validateSourcePacket(p *packet.Packet) error {
	if len(p.Payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	if w.curPacket != 0 && len(p.Payload) != w.curPayloadSize {
		return fmt.Errorf("%w: payload size %d differs from block payload size %d",
			ErrInvalidPayload, len(p.Payload), w.curPayloadSize)
	}
	return nil
}

// writeSourcePacket stamps, composes, and forwards one source packet, and
// copies its payload into the slot the encoder will read at block end.
func (w *Writer) writeSourcePacket(p *packet.Packet) error {
	w.fillPacketFECFields(p, w.curPacket)
	if err := w.sourceComposer.Compose(p); err != nil {
		return fmt.Errorf("fec: composing source packet sn=%d: %w", p.SeqNum, err)
	}
	w.sourceBuffers[w.curPacket] = append(w.sourceBuffers[w.curPacket][:0], p.Payload...)
	if err := w.out.Write(p); err != nil {
		return fmt.Errorf("fec: writing source packet sn=%d: %w", p.SeqNum, err)
	}
	return nil
}

// endBlock runs repair synthesis for the just-completed block. Any failure
// is terminal: the block's source packets are already on the wire and a
// half-transmitted block can't be safely continued.
func (w *Writer) endBlock() error {
	if err := w.makeRepairPackets(); err != nil {
		return err
	}
	if err := w.encodeRepairPackets(); err != nil {
		return err
	}
	if err := w.composeRepairPackets(); err != nil {
		return err
	}
	return w.writeRepairPackets()
}

// nextBlock resets per-block state for the following block.
func (w *Writer) nextBlock() {
	if w.tracer != nil {
		w.tracer.CompletedBlock(w.curSBN)
	}
	w.curSBN++
	w.curPacket = 0
	for n := range w.repairBlock {
		w.repairBlock[n] = nil
	}
}

func (w *Writer) makeRepairPackets() error {
	for n := 0; n < w.curRBLen; n++ {
		p, err := w.packetFactory.NewPacket()
		if err != nil {
			return fmt.Errorf("fec: allocating repair packet %d of block %d: %w", n, w.curSBN, err)
		}
		buf, err := w.bufferFactory.NewBuffer(w.curPayloadSize)
		if err != nil {
			return fmt.Errorf("fec: allocating repair payload %d of block %d: %w", n, w.curSBN, err)
		}
		p.Payload = buf
		w.repairBlock[n] = p
	}
	return nil
}

func (w *Writer) encodeRepairPackets() error {
	repair := make([][]byte, w.curRBLen)
	for n, p := range w.repairBlock {
		repair[n] = p.Payload
	}
	if err := w.encoder.Encode(w.sourceBuffers[:w.curSBLen], repair); err != nil {
		return fmt.Errorf("fec: encoding block %d: %w", w.curSBN, err)
	}
	return nil
}

// composeRepairPackets stamps and serializes all repair packets before any
// of them is transmitted, so a compose failure can't leave a half-composed
// block on the network.
func (w *Writer) composeRepairPackets() error {
	for n, p := range w.repairBlock {
		p.SeqNum = w.curRepairSN
		w.curRepairSN++
		p.Timestamp = w.prevBlockTimestamp
		w.fillPacketFECFields(p, w.curSBLen+n)
		if err := w.validateRepairPacket(p); err != nil {
			return err
		}
		if err := w.repairComposer.Compose(p); err != nil {
			return fmt.Errorf("fec: composing repair packet %d of block %d: %w", n, w.curSBN, err)
		}
	}
	return nil
}

func (w *Writer) writeRepairPackets() error {
	for n, p := range w.repairBlock {
		if err := w.out.Write(p); err != nil {
			return fmt.Errorf("fec: writing repair packet %d of block %d: %w", n, w.curSBN, err)
		}
	}
	return nil
}

// fillPacketFECFields stamps block metadata onto a packet. Index is the
// packet's position in the block, with repair packets following the
// source packets.
func (w *Writer) fillPacketFECFields(p *packet.Packet, index int) {
	p.StampFEC(packet.FEC{
		Scheme:         w.scheme,
		BlockNum:       w.curSBN,
		BlockIndex:     index,
		SourceBlockLen: w.curSBLen,
		RepairBlockLen: w.curRBLen,
	})
}

// validateRepairPacket guards against stamping bugs, not external input.
func (w *Writer) validateRepairPacket(p *packet.Packet) error {
	switch {
	case p.FEC == nil:
		return fmt.Errorf("fec: repair packet of block %d has no FEC metadata", w.curSBN)
	case p.FEC.BlockNum != w.curSBN,
		p.FEC.SourceBlockLen != w.curSBLen,
		p.FEC.RepairBlockLen != w.curRBLen:
		return fmt.Errorf("fec: repair packet metadata %+v does not match block %d (%d/%d)",
			*p.FEC, w.curSBN, w.curSBLen, w.curRBLen)
	case len(p.Payload) != w.curPayloadSize:
		return fmt.Errorf("fec: repair payload size %d does not match block payload size %d",
			len(p.Payload), w.curPayloadSize)
	}
	return nil
}

// updateBlockDuration records the time between the first packets of two
// consecutive blocks. Skipped for the very first block, which has no
// predecessor.
func (w *Writer) updateBlockDuration(firstBlockPacket *packet.Packet) {
	if !w.firstPacket && w.prevBlockTimestampValid {
		d := packet.SubTimestamps(firstBlockPacket.Timestamp, w.prevBlockTimestamp)
		if d >= 0 && (!w.blockMaxDurationValid || d > w.blockMaxDuration) {
			w.blockMaxDuration = d
			w.blockMaxDurationValid = true
		}
	}
	w.prevBlockTimestamp = firstBlockPacket.Timestamp
	w.prevBlockTimestampValid = true
}
