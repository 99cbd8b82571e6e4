package packet

//go:generate go run go.uber.org/mock/mockgen -package mocks -destination ../internal/mocks/writer.go github.com/fecstream/fecstream/packet Writer
//go:generate go run go.uber.org/mock/mockgen -package mocks -destination ../internal/mocks/composer.go github.com/fecstream/fecstream/packet Composer
//go:generate go run go.uber.org/mock/mockgen -package mocks -destination ../internal/mocks/factory.go github.com/fecstream/fecstream/packet Factory,BufferFactory

// Writer accepts composed packets for transmission. Implementations must
// preserve the order in which packets are submitted.
type Writer interface {
	Write(*Packet) error
}

// Composer serializes a packet's header and payload into its wire form,
// in place. A failure indicates malformed packet state.
type Composer interface {
	Compose(*Packet) error
}

// Factory allocates packets. Allocation may fail under memory pressure;
// such a failure is routine and reported as an error, not a panic.
type Factory interface {
	NewPacket() (*Packet, error)
}

// BufferFactory allocates payload buffers of the requested size, with the
// same failure contract as Factory.
type BufferFactory interface {
	NewBuffer(size int) ([]byte, error)
}
