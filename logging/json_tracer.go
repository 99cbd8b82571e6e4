package logging

import (
	"io"

	"github.com/francoispqt/gojay"

	"github.com/fecstream/fecstream/packet"
)

// JSONTracer writes one JSON object per event, newline-delimited, to an
// io.Writer. It is driven by a single producer, like the writer it traces.
type JSONTracer struct {
	w io.Writer
}

var _ Tracer = &JSONTracer{}

// NewJSONTracer creates a JSONTracer writing to w.
func NewJSONTracer(w io.Writer) *JSONTracer {
	return &JSONTracer{w: w}
}

type event struct {
	name string

	sbn     packet.BlockNum
	hasSBN  bool
	sblen   int
	rblen   int
	hasLens bool
	errMsg  string
	hasErr  bool
}

var _ gojay.MarshalerJSONObject = &event{}

func (e *event) IsNil() bool { return e == nil }

func (e *event) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("event", e.name)
	if e.hasSBN {
		enc.Uint64Key("sbn", uint64(e.sbn))
	}
	if e.hasLens {
		enc.IntKey("sblen", e.sblen)
		enc.IntKey("rblen", e.rblen)
	}
	if e.hasErr {
		enc.StringKey("error", e.errMsg)
	}
}

func (t *JSONTracer) emit(e *event) {
	enc := gojay.NewEncoder(t.w)
	if err := enc.EncodeObject(e); err != nil {
		return
	}
	t.w.Write([]byte{'\n'})
}

func (t *JSONTracer) StartedBlock(sbn packet.BlockNum, sblen, rblen int) {
	t.emit(&event{name: "block_started", sbn: sbn, hasSBN: true, sblen: sblen, rblen: rblen, hasLens: true})
}

func (t *JSONTracer) CompletedBlock(sbn packet.BlockNum) {
	t.emit(&event{name: "block_completed", sbn: sbn, hasSBN: true})
}

func (t *JSONTracer) Resized(sblen, rblen int) {
	t.emit(&event{name: "resized", sblen: sblen, rblen: rblen, hasLens: true})
}

func (t *JSONTracer) Closed(err error) {
	e := &event{name: "closed"}
	if err != nil {
		e.errMsg = err.Error()
		e.hasErr = true
	}
	t.emit(e)
}
