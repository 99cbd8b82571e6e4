package wire

import (
	"fmt"

	"github.com/pion/rtp"

	"github.com/fecstream/fecstream/packet"
)

// SourceComposer serializes source packets: RTP header, media payload,
// FEC payload ID trailer. The trailer keeps the packet decodable by
// FEC-unaware receivers, which simply see extra bytes past the payload.
type SourceComposer struct {
	ssrc        uint32
	payloadType uint8
}

// NewSourceComposer creates a composer for the source stream.
func NewSourceComposer(ssrc uint32, payloadType uint8) *SourceComposer {
	return &SourceComposer{ssrc: ssrc, payloadType: payloadType}
}

var _ packet.Composer = &SourceComposer{}

func (c *SourceComposer) Compose(p *packet.Packet) error {
	if p.FEC == nil {
		return fmt.Errorf("wire: source packet sn=%d has no FEC metadata", p.SeqNum)
	}
	if len(p.Payload) == 0 {
		return fmt.Errorf("wire: source packet sn=%d has no payload", p.SeqNum)
	}
	hdr := c.rtpHeader(p)
	wire, err := marshalHeader(&hdr, p.Wire, len(p.Payload)+PayloadIDSize)
	if err != nil {
		return err
	}
	wire = append(wire, p.Payload...)
	wire, err = appendPayloadID(wire, p.FEC)
	if err != nil {
		return err
	}
	p.Wire = wire
	return nil
}

func (c *SourceComposer) rtpHeader(p *packet.Packet) rtp.Header {
	return rtp.Header{
		Version:        2,
		PayloadType:    c.payloadType,
		SequenceNumber: uint16(p.SeqNum),
		Timestamp:      uint32(p.Timestamp),
		SSRC:           c.ssrc,
	}
}

// RepairComposer serializes repair packets: RTP header, FEC payload ID,
// redundancy payload. The repair stream uses its own SSRC and payload
// type, distinct from the source stream's.
type RepairComposer struct {
	ssrc        uint32
	payloadType uint8
}

// NewRepairComposer creates a composer for the repair stream.
func NewRepairComposer(ssrc uint32, payloadType uint8) *RepairComposer {
	return &RepairComposer{ssrc: ssrc, payloadType: payloadType}
}

var _ packet.Composer = &RepairComposer{}

func (c *RepairComposer) Compose(p *packet.Packet) error {
	if p.FEC == nil {
		return fmt.Errorf("wire: repair packet sn=%d has no FEC metadata", p.SeqNum)
	}
	if len(p.Payload) == 0 {
		return fmt.Errorf("wire: repair packet sn=%d has no payload", p.SeqNum)
	}
	hdr := rtp.Header{
		Version:        2,
		PayloadType:    c.payloadType,
		SequenceNumber: uint16(p.SeqNum),
		Timestamp:      uint32(p.Timestamp),
		SSRC:           c.ssrc,
	}
	wire, err := marshalHeader(&hdr, p.Wire, PayloadIDSize+len(p.Payload))
	if err != nil {
		return err
	}
	wire, err = appendPayloadID(wire, p.FEC)
	if err != nil {
		return err
	}
	p.Wire = append(wire, p.Payload...)
	return nil
}

// marshalHeader serializes an RTP header into the front of buf, reusing
// its capacity when possible and reserving room for rest more bytes.
func marshalHeader(hdr *rtp.Header, buf []byte, rest int) ([]byte, error) {
	size := hdr.MarshalSize()
	if cap(buf) < size+rest {
		buf = make([]byte, size, size+rest)
	}
	buf = buf[:size]
	if _, err := hdr.MarshalTo(buf); err != nil {
		return nil, fmt.Errorf("wire: marshaling RTP header: %w", err)
	}
	return buf, nil
}
