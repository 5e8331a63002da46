package wire

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMsgHeaderRoundTrip(t *testing.T) {
	hdr := MsgHeader{Size: 128, Level: 2, TSC: 0xdeadbeefcafe, DecodeFn: 7}
	buf := make([]byte, HeaderSize)
	MarshalHeader(&hdr, buf)

	var got MsgHeader
	UnmarshalHeader(buf, &got)
	assert.Equal(t, hdr, got)
}

func TestHeaderAtViewsUnderlyingBytes(t *testing.T) {
	buf := make([]byte, HeaderSize+16)
	hdr := HeaderAt(buf)
	PutSize(hdr, 64)
	assert.Equal(t, uint32(64), HeaderAt(buf).Size)
}

func TestWidenPrimitives(t *testing.T) {
	tag, bits := Widen(int32(-1))
	assert.Equal(t, TagI64, tag)
	assert.Equal(t, uint64(0xFFFFFFFFFFFFFFFF), bits)

	tag, bits = Widen(uint8(200))
	assert.Equal(t, TagU64, tag)
	assert.Equal(t, uint64(200), bits)

	tag, bits = Widen(true)
	assert.Equal(t, TagU64, tag)
	assert.Equal(t, uint64(1), bits)

	tag, _ = Widen(float32(1.5))
	assert.Equal(t, TagF64, tag)
}

func TestEncodeArg2RoundTrip(t *testing.T) {
	payload := make([]byte, 64)
	n := EncodeArg2(payload, int64(-42), uint64(7))
	require.Equal(t, TagHeaderSize+16, n)

	tag0 := ReadTag(payload, 0)
	tag1 := ReadTag(payload, 1)
	require.Equal(t, TagI64, tag0)
	require.Equal(t, TagU64, tag1)

	v0, off := ReadArg(payload, tag0, TagHeaderSize)
	assert.Equal(t, int64(-42), v0.I64)
	v1, off2 := ReadArg(payload, tag1, off)
	assert.Equal(t, uint64(7), v1.U64)
	assert.Equal(t, n, off2)
}

func TestEncodeArg6AllWiden(t *testing.T) {
	payload := make([]byte, 128)
	n := EncodeArg6(payload, int8(-1), uint16(5), int32(-2), uint32(9), float32(2.5), false)
	require.Equal(t, TagHeaderSize+6*8, n)

	off := TagHeaderSize
	for i := 0; i < 6; i++ {
		_, next := ReadArg(payload, ReadTag(payload, i), off)
		off = next
	}
	assert.Equal(t, n, off)
}

type point struct {
	X, Y int32
}

func TestEncodePODArg1RoundTrip(t *testing.T) {
	payload := make([]byte, 64)
	p := point{X: 3, Y: -4}
	n := EncodePODArg1(payload, 99, p)

	tag0 := ReadTag(payload, 0)
	require.Equal(t, PODBase+uint8(unsafe.Sizeof(p)), tag0)

	v, off := ReadArg(payload, tag0, TagHeaderSize)
	assert.Equal(t, uint64(99), v.PODSite)
	require.Len(t, v.PODBytes, int(unsafe.Sizeof(p)))
	assert.Equal(t, n, off)

	var got point
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&got)), unsafe.Sizeof(got)), v.PODBytes)
	assert.Equal(t, p, got)
}

func TestEncodeMixedArg2RoundTrip(t *testing.T) {
	payload := make([]byte, 64)
	p := point{X: 1, Y: 2}
	n := EncodeMixedArg2(payload, int64(55), 3, p)

	tag0, tag1 := ReadTag(payload, 0), ReadTag(payload, 1)
	require.Equal(t, TagI64, tag0)
	require.Equal(t, PODBase+uint8(unsafe.Sizeof(p)), tag1)

	v0, off := ReadArg(payload, tag0, TagHeaderSize)
	assert.Equal(t, int64(55), v0.I64)
	v1, off2 := ReadArg(payload, tag1, off)
	assert.Equal(t, uint64(3), v1.PODSite)
	assert.Equal(t, n, off2)
}

func TestRegisterAndDecode(t *testing.T) {
	before := RegisteredCount()
	id := RegisterDecoder("wire_test.unique_fingerprint_1", func(out TextWriter, payload []byte) {
		out.WriteBytes([]byte("hello"))
	})
	assert.Equal(t, before, int(id))

	var rw recordingWriter
	Decode(id, &rw, nil)
	assert.Equal(t, "hello", string(rw.buf))
}

func TestRegisterDuplicateFingerprintPanics(t *testing.T) {
	RegisterDecoder("wire_test.dup_fingerprint", func(out TextWriter, payload []byte) {})
	assert.Panics(t, func() {
		RegisterDecoder("wire_test.dup_fingerprint", func(out TextWriter, payload []byte) {})
	})
}

type recordingWriter struct{ buf []byte }

func (r *recordingWriter) WriteBytes(p []byte) { r.buf = append(r.buf, p...) }
