package packet

import (
	"fmt"
	"sync"
)

// MaxPayloadSize is the largest payload a PoolFactory hands out. It is
// sized for an RTP packet in a typical 1500-byte MTU path.
const MaxPayloadSize = 1452

// PoolFactory is a sync.Pool backed implementation of Factory and
// BufferFactory. Buffers are recycled at full capacity so that returning
// them to the pool never shrinks it.
type PoolFactory struct {
	packets sync.Pool
	buffers sync.Pool
}

// NewPoolFactory creates a PoolFactory.
func NewPoolFactory() *PoolFactory {
	f := &PoolFactory{}
	f.packets.New = func() interface{} {
		return &Packet{
			Payload:  make([]byte, 0, MaxPayloadSize),
			Wire:     make([]byte, 0, MaxPayloadSize),
			fromPool: true,
		}
	}
	f.buffers.New = func() interface{} {
		b := make([]byte, 0, MaxPayloadSize)
		return &b
	}
	return f
}

// NewPacket returns a zeroed packet with pre-allocated payload and wire
// buffers.
func (f *PoolFactory) NewPacket() (*Packet, error) {
	p := f.packets.Get().(*Packet)
	p.Reset()
	return p, nil
}

// PutPacket returns a packet to the pool. Packets not obtained from this
// factory are dropped.
func (f *PoolFactory) PutPacket(p *Packet) {
	if !p.fromPool {
		return
	}
	if cap(p.Payload) != MaxPayloadSize {
		panic("packet.PutPacket called with payload buffer of wrong capacity")
	}
	f.packets.Put(p)
}

// NewBuffer returns a zero-filled buffer of the requested size.
func (f *PoolFactory) NewBuffer(size int) ([]byte, error) {
	if size > MaxPayloadSize {
		return nil, fmt.Errorf("requested buffer size %d exceeds maximum %d", size, MaxPayloadSize)
	}
	bp := f.buffers.Get().(*[]byte)
	b := (*bp)[:size]
	for i := range b {
		b[i] = 0
	}
	return b, nil
}

// PutBuffer returns a buffer to the pool.
func (f *PoolFactory) PutBuffer(b []byte) {
	if cap(b) != MaxPayloadSize {
		return
	}
	b = b[:0]
	f.buffers.Put(&b)
}
