// Package wire implements RTP composers for the FEC source and repair
// streams.
//
// Both streams are ordinary RTP packets. Source packets carry the media
// payload followed by an explicit FEC payload ID trailer; repair packets
// carry the payload ID as a header ahead of the redundancy payload, so a
// receiver can route a repair packet to its block without touching the
// payload.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/fecstream/fecstream/packet"
)

// PayloadIDSize is the encoded size of a FEC payload ID:
// scheme (1), sbn (2), block index (2), sblen (2), rblen (2).
const PayloadIDSize = 9

const maxBlockField = 1<<16 - 1

func appendPayloadID(b []byte, f *packet.FEC) ([]byte, error) {
	if f.BlockIndex > maxBlockField || f.SourceBlockLen > maxBlockField || f.RepairBlockLen > maxBlockField {
		return nil, fmt.Errorf("wire: FEC metadata %+v does not fit the payload ID encoding", *f)
	}
	b = append(b, byte(f.Scheme))
	b = binary.BigEndian.AppendUint16(b, uint16(f.BlockNum))
	b = binary.BigEndian.AppendUint16(b, uint16(f.BlockIndex))
	b = binary.BigEndian.AppendUint16(b, uint16(f.SourceBlockLen))
	b = binary.BigEndian.AppendUint16(b, uint16(f.RepairBlockLen))
	return b, nil
}

// ParsePayloadID decodes a FEC payload ID from the first PayloadIDSize
// bytes of b.
func ParsePayloadID(b []byte) (packet.FEC, error) {
	if len(b) < PayloadIDSize {
		return packet.FEC{}, fmt.Errorf("wire: payload ID needs %d bytes, got %d", PayloadIDSize, len(b))
	}
	return packet.FEC{
		Scheme:         packet.SchemeID(b[0]),
		BlockNum:       packet.BlockNum(binary.BigEndian.Uint16(b[1:3])),
		BlockIndex:     int(binary.BigEndian.Uint16(b[3:5])),
		SourceBlockLen: int(binary.BigEndian.Uint16(b[5:7])),
		RepairBlockLen: int(binary.BigEndian.Uint16(b[7:9])),
	}, nil
}
