// Package wire defines the on-ring message layout and the deferred
// argument-capture machinery: the compact byte image of a call site's
// arguments, and the per-site decoder that turns that image back into text.
package wire

import (
	"encoding/binary"
	"unsafe"

	"github.com/ehrlich-b/nanolog/internal/constants"
)

// MsgHeader is the fixed 24-byte, 8-byte-aligned header every queued message
// starts with. Size==0 is the rewind marker (see ringqueue).
type MsgHeader struct {
	// Size is the exact total bytes of the message including this header;
	// the queue rounds the space it reserves up to whole blocks, but Size
	// itself is not rounded. 0 means "rewind marker".
	Size uint32
	// Level is the log severity ordinal (0=trace .. 4=error).
	Level uint32
	// TSC is the cycle-counter reading taken just before commit.
	TSC uint64
	// DecodeFn is the process-local decoder-registry index for this call
	// site (see RegisterDecoder/Decode in decode.go) — not a raw machine address, since
	// Go offers no portable way to round-trip a relocatable function
	// pointer through a uint64 the way the original transmute-based
	// design does.
	DecodeFn uint64
}

// HeaderSize is MsgHeader's encoded size; kept equal to
// constants.MsgHeaderSize and checked in init().
const HeaderSize = constants.MsgHeaderSize

func init() {
	if unsafe.Sizeof(MsgHeader{}) != HeaderSize {
		panic("wire: MsgHeader size drifted from constants.MsgHeaderSize")
	}
}

// HeaderAt reinterprets the first HeaderSize bytes of buf as a *MsgHeader.
// buf must be at least HeaderSize bytes and must outlive the returned
// pointer; this is the same direct-memory-view idiom the teacher's
// internal/uapi package uses for ublk's kernel-ABI structs.
func HeaderAt(buf []byte) *MsgHeader {
	return (*MsgHeader)(unsafe.Pointer(&buf[0]))
}

// PutSize performs the volatile-store-equivalent publication of the Size
// field: on Go's memory model a plain store through a pointer obtained from
// a byte slice is not itself a synchronizing operation, so a caller must
// follow it with an atomic store (such as ringqueue's Commit publishing
// writtenIdx) before another goroutine may observe it.
func PutSize(hdr *MsgHeader, size uint32) {
	hdr.Size = size
}

// MarshalHeader encodes hdr into buf (must be >= HeaderSize) using explicit
// little-endian field writes, mirroring internal/uapi/marshal.go's manual
// binary.LittleEndian encoding rather than relying on struct layout alone.
func MarshalHeader(hdr *MsgHeader, buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], hdr.Size)
	binary.LittleEndian.PutUint32(buf[4:8], hdr.Level)
	binary.LittleEndian.PutUint64(buf[8:16], hdr.TSC)
	binary.LittleEndian.PutUint64(buf[16:24], hdr.DecodeFn)
}

// UnmarshalHeader decodes buf (must be >= HeaderSize) into hdr.
func UnmarshalHeader(buf []byte, hdr *MsgHeader) {
	hdr.Size = binary.LittleEndian.Uint32(buf[0:4])
	hdr.Level = binary.LittleEndian.Uint32(buf[4:8])
	hdr.TSC = binary.LittleEndian.Uint64(buf[8:16])
	hdr.DecodeFn = binary.LittleEndian.Uint64(buf[16:24])
}
