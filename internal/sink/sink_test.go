package sink

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/nanolog/internal/wire"
)

type fixedClock int64

func (c fixedClock) ToNanos(tscVal uint64) int64 { return int64(tscVal) + int64(c) }

func buildMessage(level uint32, tscVal uint64, decodeFn uint64, argPayload []byte) []byte {
	hdr := wire.MsgHeader{
		Size:     uint32(wire.HeaderSize + len(argPayload)),
		Level:    level,
		TSC:      tscVal,
		DecodeFn: decodeFn,
	}
	buf := make([]byte, hdr.Size)
	wire.MarshalHeader(&hdr, buf)
	copy(buf[wire.HeaderSize:], argPayload)
	return buf
}

func TestConsoleSinkOnRecordRendersLine(t *testing.T) {
	payload := make([]byte, 16)
	n := wire.EncodeArg1(payload, int64(42))
	siteID := wire.RegisterDecoder("sink_test.render_line", func(out wire.TextWriter, p []byte) {
		tag := wire.ReadTag(p, 0)
		v, _ := wire.ReadArg(p, tag, wire.TagHeaderSize)
		out.WriteBytes([]byte("answer="))
		if v.I64 == 42 {
			out.WriteBytes([]byte("42"))
		}
	})

	var out bytes.Buffer
	s := NewConsoleSink(&out, WithFlushBytes(1)) // flush immediately
	msg := buildMessage(uint32(LevelInfo), 1_000_000_000, siteID, payload[:n])

	s.OnRecord(7, fixedClock(0), msg)

	rendered := out.String()
	assert.Contains(t, rendered, "answer=42")
	assert.Contains(t, rendered, "T=00007")
	assert.Contains(t, rendered, "INF")
}

func TestConsoleSinkBatchesUntilFlushThreshold(t *testing.T) {
	payload := make([]byte, 16)
	n := wire.EncodeArg1(payload, int64(1))
	siteID := wire.RegisterDecoder("sink_test.batches_until_threshold", func(out wire.TextWriter, p []byte) {
		out.WriteBytes([]byte("x"))
	})

	var out bytes.Buffer
	s := NewConsoleSink(&out, WithFlushBytes(1<<20), WithFlushInterval(1<<62))
	msg := buildMessage(uint32(LevelInfo), 1, siteID, payload[:n])

	s.OnRecord(1, fixedClock(0), msg)
	assert.Equal(t, 0, out.Len(), "must not flush before threshold")

	s.Flush(0)
	assert.Greater(t, out.Len(), 0)
}

func TestConsoleSinkOnIdleFlushesStaleBatch(t *testing.T) {
	payload := make([]byte, 16)
	n := wire.EncodeArg1(payload, int64(1))
	siteID := wire.RegisterDecoder("sink_test.idle_flush", func(out wire.TextWriter, p []byte) {
		out.WriteBytes([]byte("y"))
	})

	var out bytes.Buffer
	s := NewConsoleSink(&out, WithFlushBytes(1<<20), WithFlushInterval(100))
	s.SetLastFlushNS(0)
	msg := buildMessage(uint32(LevelInfo), 0, siteID, payload[:n])

	s.OnRecord(1, fixedClock(0), msg)
	require.Equal(t, 0, out.Len())

	s.OnIdle(1000) // well past the 100ns staleness threshold
	assert.Greater(t, out.Len(), 0)
}

func TestTimeCacheRefreshStable(t *testing.T) {
	var tc TimeCache
	tc.Refresh(1_500_000_000) // 1.5s after epoch
	first := append([]byte(nil), tc.Prefix()...)
	tc.Refresh(1_501_000_000) // same second, different millis
	assert.Equal(t, first[:15], tc.Prefix()[:15])
	assert.NotEqual(t, first[15:18], tc.Prefix()[15:18])
}

func TestTidCacheStableAcrossCalls(t *testing.T) {
	c := NewTidCache()
	a := append([]byte(nil), c.Tag(42)...)
	b := c.Tag(42)
	assert.Equal(t, a, b)
	assert.Equal(t, "T=00042", string(a))
}

func TestScratchTruncatesPastHardCap(t *testing.T) {
	s := NewScratch()
	big := bytes.Repeat([]byte("a"), 100000)
	s.WriteBytes(big)
	assert.True(t, s.Truncated())
	assert.LessOrEqual(t, s.Len(), 4096)
	assert.True(t, bytes.HasSuffix(s.Bytes(), truncationMarker), "truncated line must end with the marker")
}
