package fec

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/fecstream/fecstream/internal/mocks"
	"github.com/fecstream/fecstream/packet"
)

var _ = Describe("Writer", func() {
	const (
		sblen       = 4
		rblen       = 2
		payloadSize = 160
	)

	var (
		encoder        *MockBlockEncoder
		out            *mocks.MockWriter
		sourceComposer *mocks.MockComposer
		repairComposer *mocks.MockComposer
		packetFactory  *mocks.MockFactory
		bufferFactory  *mocks.MockBufferFactory
		writer         *Writer

		written []*packet.Packet
	)

	newPacket := func(sn packet.SeqNum, ts packet.Timestamp, size int) *packet.Packet {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(sn)
		}
		return &packet.Packet{SeqNum: sn, Timestamp: ts, Payload: payload}
	}

	newWriter := func(cfg WriterConfig) {
		var err error
		writer, err = NewWriter(cfg, packet.SchemeRS, encoder, out,
			sourceComposer, repairComposer, packetFactory, bufferFactory)
		Expect(err).ToNot(HaveOccurred())
	}

	// expectHappyPath makes every collaborator succeed and records the
	// downstream write order.
	expectHappyPath := func() {
		sourceComposer.EXPECT().Compose(gomock.Any()).Return(nil).AnyTimes()
		repairComposer.EXPECT().Compose(gomock.Any()).Return(nil).AnyTimes()
		out.EXPECT().Write(gomock.Any()).DoAndReturn(func(p *packet.Packet) error {
			written = append(written, p)
			return nil
		}).AnyTimes()
		packetFactory.EXPECT().NewPacket().DoAndReturn(func() (*packet.Packet, error) {
			return &packet.Packet{}, nil
		}).AnyTimes()
		bufferFactory.EXPECT().NewBuffer(gomock.Any()).DoAndReturn(func(size int) ([]byte, error) {
			return make([]byte, size), nil
		}).AnyTimes()
		encoder.EXPECT().Encode(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	}

	// writeBlock writes one full block of source packets with 40-tick
	// timestamp spacing and returns the next sequence number.
	writeBlock := func(sn packet.SeqNum) packet.SeqNum {
		for i := 0; i < sblen; i++ {
			p := newPacket(sn, packet.Timestamp(uint32(sn)*40), payloadSize)
			ExpectWithOffset(1, writer.Write(p)).To(Succeed())
			sn++
		}
		return sn
	}

	BeforeEach(func() {
		encoder = NewMockBlockEncoder(mockCtrl)
		out = mocks.NewMockWriter(mockCtrl)
		sourceComposer = mocks.NewMockComposer(mockCtrl)
		repairComposer = mocks.NewMockComposer(mockCtrl)
		packetFactory = mocks.NewMockFactory(mockCtrl)
		bufferFactory = mocks.NewMockBufferFactory(mockCtrl)
		written = nil
		encoder.EXPECT().MaxBlockLength().Return(256).AnyTimes()
	})

	It("rejects nil collaborators", func() {
		_, err := NewWriter(WriterConfig{}, packet.SchemeRS, nil, out,
			sourceComposer, repairComposer, packetFactory, bufferFactory)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a config the encoder can't support", func() {
		_, err := NewWriter(WriterConfig{SourceBlockLen: 250, RepairBlockLen: 10},
			packet.SchemeRS, encoder, out,
			sourceComposer, repairComposer, packetFactory, bufferFactory)
		Expect(err).To(MatchError(ErrInvalidConfig))
	})

	Context("block lifecycle", func() {
		BeforeEach(func() {
			expectHappyPath()
			newWriter(WriterConfig{SourceBlockLen: sblen, RepairBlockLen: rblen})
		})

		It("writes all source packets of a block before its repair packets", func() {
			writeBlock(0)

			Expect(written).To(HaveLen(sblen + rblen))
			for i, p := range written {
				Expect(p.FEC).ToNot(BeNil())
				Expect(p.FEC.BlockNum).To(Equal(packet.BlockNum(0)))
				Expect(p.FEC.BlockIndex).To(Equal(i))
				Expect(p.FEC.SourceBlockLen).To(Equal(sblen))
				Expect(p.FEC.RepairBlockLen).To(Equal(rblen))
				Expect(p.FEC.Scheme).To(Equal(packet.SchemeRS))
			}
		})

		It("sizes repair payloads to the block's payload size", func() {
			writeBlock(0)
			for _, p := range written[sblen:] {
				Expect(p.Payload).To(HaveLen(payloadSize))
			}
		})

		It("starts the next block after the repair packets", func() {
			sn := writeBlock(0)
			Expect(writer.Write(newPacket(sn, 1000, payloadSize))).To(Succeed())

			Expect(written).To(HaveLen(sblen + rblen + 1))
			Expect(written[sblen+rblen].FEC.BlockNum).To(Equal(packet.BlockNum(1)))
			Expect(written[sblen+rblen].FEC.BlockIndex).To(Equal(0))
		})

		It("advances the block number by one per block", func() {
			sn := packet.SeqNum(0)
			for i := 0; i < 5; i++ {
				sn = writeBlock(sn)
			}
			Expect(written).To(HaveLen(5 * (sblen + rblen)))
			for i := 0; i < 5; i++ {
				for _, p := range written[i*(sblen+rblen) : (i+1)*(sblen+rblen)] {
					Expect(p.FEC.BlockNum).To(Equal(packet.BlockNum(i)))
				}
			}
		})

		It("assigns strictly increasing repair sequence numbers across blocks", func() {
			sn := packet.SeqNum(0)
			for i := 0; i < 3; i++ {
				sn = writeBlock(sn)
			}
			var repairSNs []packet.SeqNum
			for _, p := range written {
				if p.FEC.BlockIndex >= sblen {
					repairSNs = append(repairSNs, p.SeqNum)
				}
			}
			Expect(repairSNs).To(HaveLen(3 * rblen))
			for i := 1; i < len(repairSNs); i++ {
				Expect(repairSNs[i]).To(Equal(repairSNs[i-1] + 1))
			}
		})

		It("hands the encoder the source payloads and the repair buffers", func() {
			var gotSource, gotRepair [][]byte
			encoder := NewMockBlockEncoder(mockCtrl)
			encoder.EXPECT().MaxBlockLength().Return(256).AnyTimes()
			encoder.EXPECT().Encode(gomock.Any(), gomock.Any()).DoAndReturn(
				func(source, repair [][]byte) error {
					gotSource = source
					gotRepair = repair
					return nil
				})
			var err error
			writer, err = NewWriter(WriterConfig{SourceBlockLen: sblen, RepairBlockLen: rblen},
				packet.SchemeRS, encoder, out, sourceComposer, repairComposer, packetFactory, bufferFactory)
			Expect(err).ToNot(HaveOccurred())

			writeBlock(0)

			Expect(gotSource).To(HaveLen(sblen))
			for i, b := range gotSource {
				Expect(b).To(HaveLen(payloadSize))
				Expect(b[0]).To(Equal(byte(i)))
			}
			Expect(gotRepair).To(HaveLen(rblen))
		})

		It("establishes the payload size per block", func() {
			sn := writeBlock(0)
			for i := 0; i < sblen; i++ {
				Expect(writer.Write(newPacket(sn, 0, 100))).To(Succeed())
				sn++
			}
			for _, p := range written[sblen+rblen:] {
				Expect(p.Payload).To(HaveLen(100))
			}
		})
	})

	Context("validation", func() {
		BeforeEach(func() {
			expectHappyPath()
			newWriter(WriterConfig{SourceBlockLen: sblen, RepairBlockLen: rblen})
		})

		It("rejects an empty payload", func() {
			err := writer.Write(&packet.Packet{SeqNum: 1})
			Expect(err).To(MatchError(ErrInvalidPayload))
			Expect(writer.Alive()).To(BeTrue())
			Expect(written).To(BeEmpty())
		})

		It("rejects a payload size differing from the block's", func() {
			Expect(writer.Write(newPacket(0, 0, payloadSize))).To(Succeed())
			err := writer.Write(newPacket(1, 40, payloadSize+20))
			Expect(err).To(MatchError(ErrInvalidPayload))
			Expect(writer.Alive()).To(BeTrue())

			// The failed write didn't advance the block: three more valid
			// packets complete it.
			for sn := packet.SeqNum(1); sn < sblen; sn++ {
				Expect(writer.Write(newPacket(sn, packet.Timestamp(sn)*40, payloadSize))).To(Succeed())
			}
			Expect(written).To(HaveLen(sblen + rblen))
		})
	})

	Context("resizing", func() {
		BeforeEach(func() {
			expectHappyPath()
			newWriter(WriterConfig{SourceBlockLen: sblen, RepairBlockLen: rblen})
		})

		It("rejects non-positive block lengths without touching state", func() {
			Expect(writer.Resize(0, rblen)).To(MatchError(ErrInvalidConfig))
			Expect(writer.Resize(sblen, -1)).To(MatchError(ErrInvalidConfig))

			writeBlock(0)
			Expect(written[0].FEC.SourceBlockLen).To(Equal(sblen))
			Expect(written[0].FEC.RepairBlockLen).To(Equal(rblen))
		})

		It("rejects block lengths beyond the encoder limit", func() {
			Expect(writer.Resize(250, 10)).To(MatchError(ErrInvalidConfig))
		})

		It("applies a resize at the next block boundary", func() {
			sn := writeBlock(0)
			Expect(writer.Resize(8, 4)).To(Succeed())

			for i := 0; i < 8; i++ {
				Expect(writer.Write(newPacket(sn, 0, payloadSize))).To(Succeed())
				sn++
			}
			Expect(written).To(HaveLen(sblen + rblen + 8 + 4))
			for _, p := range written[:sblen+rblen] {
				Expect(p.FEC.SourceBlockLen).To(Equal(sblen))
				Expect(p.FEC.RepairBlockLen).To(Equal(rblen))
			}
			for _, p := range written[sblen+rblen:] {
				Expect(p.FEC.BlockNum).To(Equal(packet.BlockNum(1)))
				Expect(p.FEC.SourceBlockLen).To(Equal(8))
				Expect(p.FEC.RepairBlockLen).To(Equal(4))
			}
		})

		It("never disrupts the block in progress", func() {
			Expect(writer.Write(newPacket(0, 0, payloadSize))).To(Succeed())
			Expect(writer.Resize(8, 4)).To(Succeed())
			for sn := packet.SeqNum(1); sn < sblen; sn++ {
				Expect(writer.Write(newPacket(sn, packet.Timestamp(sn)*40, payloadSize))).To(Succeed())
			}

			Expect(written).To(HaveLen(sblen + rblen))
			for _, p := range written {
				Expect(p.FEC.SourceBlockLen).To(Equal(sblen))
				Expect(p.FEC.RepairBlockLen).To(Equal(rblen))
			}
		})
	})

	Context("block duration", func() {
		BeforeEach(func() {
			expectHappyPath()
			newWriter(WriterConfig{SourceBlockLen: sblen, RepairBlockLen: rblen})
		})

		It("is undefined until two blocks have started", func() {
			_, ok := writer.MaxBlockDuration()
			Expect(ok).To(BeFalse())

			writeBlock(0)
			_, ok = writer.MaxBlockDuration()
			Expect(ok).To(BeFalse())
		})

		It("tracks the maximum duration between block starts", func() {
			sn := writeBlock(0) // first packet at ts 0
			sn = writeBlock(sn) // first packet at ts 160

			d, ok := writer.MaxBlockDuration()
			Expect(ok).To(BeTrue())
			Expect(d).To(Equal(packet.TimestampDiff(160)))

			// A longer gap before the next block raises the maximum.
			for i := 0; i < sblen; i++ {
				Expect(writer.Write(newPacket(sn, 1000+packet.Timestamp(i)*40, payloadSize))).To(Succeed())
				sn++
			}
			d, ok = writer.MaxBlockDuration()
			Expect(ok).To(BeTrue())
			Expect(d).To(Equal(packet.TimestampDiff(1000 - 160)))
		})

		It("resets on resize", func() {
			sn := writeBlock(0)
			sn = writeBlock(sn)
			_, ok := writer.MaxBlockDuration()
			Expect(ok).To(BeTrue())

			Expect(writer.Resize(sblen, rblen)).To(Succeed())
			_, ok = writer.MaxBlockDuration()
			Expect(ok).To(BeFalse())

			// Two more block starts repopulate it.
			sn = writeBlock(sn)
			_, ok = writer.MaxBlockDuration()
			Expect(ok).To(BeFalse())
			writeBlock(sn)
			_, ok = writer.MaxBlockDuration()
			Expect(ok).To(BeTrue())
		})
	})

	Context("failure handling", func() {
		writeAlmostFullBlock := func() {
			for sn := packet.SeqNum(0); sn < sblen-1; sn++ {
				Expect(writer.Write(newPacket(sn, packet.Timestamp(sn)*40, payloadSize))).To(Succeed())
			}
		}

		It("stays alive when the source composer rejects a packet", func() {
			out.EXPECT().Write(gomock.Any()).Return(nil).AnyTimes()
			sourceComposer.EXPECT().Compose(gomock.Any()).Return(errors.New("malformed"))
			sourceComposer.EXPECT().Compose(gomock.Any()).Return(nil)
			newWriter(WriterConfig{SourceBlockLen: sblen, RepairBlockLen: rblen})

			Expect(writer.Write(newPacket(0, 0, payloadSize))).ToNot(Succeed())
			Expect(writer.Alive()).To(BeTrue())
			Expect(writer.Write(newPacket(0, 0, payloadSize))).To(Succeed())
		})

		It("stays alive when the downstream writer rejects a source packet", func() {
			sourceComposer.EXPECT().Compose(gomock.Any()).Return(nil).AnyTimes()
			out.EXPECT().Write(gomock.Any()).Return(errors.New("transport failure"))
			out.EXPECT().Write(gomock.Any()).Return(nil)
			newWriter(WriterConfig{SourceBlockLen: sblen, RepairBlockLen: rblen})

			Expect(writer.Write(newPacket(0, 0, payloadSize))).ToNot(Succeed())
			Expect(writer.Alive()).To(BeTrue())
			Expect(writer.Write(newPacket(0, 0, payloadSize))).To(Succeed())
		})

		It("dies when repair packet allocation fails", func() {
			expectHappyPath()
			newWriter(WriterConfig{SourceBlockLen: sblen, RepairBlockLen: rblen})
			writeAlmostFullBlock()

			packetFactory := mocks.NewMockFactory(mockCtrl)
			packetFactory.EXPECT().NewPacket().Return(nil, errors.New("no memory"))
			writer.packetFactory = packetFactory

			err := writer.Write(newPacket(sblen-1, (sblen-1)*40, payloadSize))
			Expect(err).To(HaveOccurred())
			Expect(writer.Alive()).To(BeFalse())
		})

		It("dies when repair buffer allocation fails", func() {
			expectHappyPath()
			newWriter(WriterConfig{SourceBlockLen: sblen, RepairBlockLen: rblen})
			writeAlmostFullBlock()

			bufferFactory := mocks.NewMockBufferFactory(mockCtrl)
			bufferFactory.EXPECT().NewBuffer(payloadSize).Return(nil, errors.New("no memory"))
			writer.bufferFactory = bufferFactory

			Expect(writer.Write(newPacket(sblen-1, (sblen-1)*40, payloadSize))).ToNot(Succeed())
			Expect(writer.Alive()).To(BeFalse())
		})

		It("dies when the encoder fails", func() {
			expectHappyPath()
			newWriter(WriterConfig{SourceBlockLen: sblen, RepairBlockLen: rblen})
			writeAlmostFullBlock()

			encoder := NewMockBlockEncoder(mockCtrl)
			encoder.EXPECT().Encode(gomock.Any(), gomock.Any()).Return(errors.New("misconfigured"))
			writer.encoder = encoder

			Expect(writer.Write(newPacket(sblen-1, (sblen-1)*40, payloadSize))).ToNot(Succeed())
			Expect(writer.Alive()).To(BeFalse())
		})

		It("dies when the repair composer fails, before writing any repair packet", func() {
			sourceComposer.EXPECT().Compose(gomock.Any()).Return(nil).AnyTimes()
			packetFactory.EXPECT().NewPacket().DoAndReturn(func() (*packet.Packet, error) {
				return &packet.Packet{}, nil
			}).AnyTimes()
			bufferFactory.EXPECT().NewBuffer(gomock.Any()).DoAndReturn(func(size int) ([]byte, error) {
				return make([]byte, size), nil
			}).AnyTimes()
			encoder.EXPECT().Encode(gomock.Any(), gomock.Any()).Return(nil)
			// The source packets reach the downstream writer, the repair
			// packets must not.
			out.EXPECT().Write(gomock.Any()).DoAndReturn(func(p *packet.Packet) error {
				Expect(p.FEC.BlockIndex).To(BeNumerically("<", sblen))
				return nil
			}).Times(sblen)
			repairComposer.EXPECT().Compose(gomock.Any()).Return(errors.New("malformed"))
			newWriter(WriterConfig{SourceBlockLen: sblen, RepairBlockLen: rblen})

			writeAlmostFullBlock()
			Expect(writer.Write(newPacket(sblen-1, (sblen-1)*40, payloadSize))).ToNot(Succeed())
			Expect(writer.Alive()).To(BeFalse())
		})

		It("dies when the downstream writer rejects a repair packet", func() {
			expectHappyPath()
			newWriter(WriterConfig{SourceBlockLen: sblen, RepairBlockLen: rblen})
			writeAlmostFullBlock()

			out := mocks.NewMockWriter(mockCtrl)
			gomock.InOrder(
				out.EXPECT().Write(gomock.Any()).Return(nil), // last source packet
				out.EXPECT().Write(gomock.Any()).Return(nil), // first repair packet
				out.EXPECT().Write(gomock.Any()).Return(errors.New("transport failure")),
			)
			writer.out = out

			Expect(writer.Write(newPacket(sblen-1, (sblen-1)*40, payloadSize))).ToNot(Succeed())
			Expect(writer.Alive()).To(BeFalse())
		})

		It("rejects writes without touching collaborators once dead", func() {
			expectHappyPath()
			newWriter(WriterConfig{SourceBlockLen: sblen, RepairBlockLen: rblen})
			writeAlmostFullBlock()

			encoder := NewMockBlockEncoder(mockCtrl)
			encoder.EXPECT().Encode(gomock.Any(), gomock.Any()).Return(errors.New("misconfigured"))
			writer.encoder = encoder
			Expect(writer.Write(newPacket(sblen-1, (sblen-1)*40, payloadSize))).ToNot(Succeed())

			// Swap in collaborators that fail the test on any call.
			writer.out = mocks.NewMockWriter(mockCtrl)
			writer.sourceComposer = mocks.NewMockComposer(mockCtrl)
			writer.repairComposer = mocks.NewMockComposer(mockCtrl)
			writer.packetFactory = mocks.NewMockFactory(mockCtrl)
			writer.bufferFactory = mocks.NewMockBufferFactory(mockCtrl)

			Expect(writer.Write(newPacket(100, 0, payloadSize))).To(MatchError(ErrClosed))
			Expect(writer.Resize(sblen, rblen)).To(MatchError(ErrClosed))
		})
	})

	Context("default configuration", func() {
		It("uses 18 source and 10 repair packets per block", func() {
			expectHappyPath()
			newWriter(WriterConfig{})
			for sn := packet.SeqNum(0); sn < 18; sn++ {
				Expect(writer.Write(newPacket(sn, packet.Timestamp(sn)*40, payloadSize))).To(Succeed())
			}
			Expect(written).To(HaveLen(18 + 10))
			Expect(written[18].FEC.SourceBlockLen).To(Equal(18))
			Expect(written[18].FEC.RepairBlockLen).To(Equal(10))
		})
	})
})
