// Package sink implements the consumer side of nanolog: draining queued
// messages, rendering them to text with zero-branch decimal formatting,
// and batching the result before it reaches an io.Writer.
package sink

import (
	"time"

	"github.com/ehrlich-b/nanolog/internal/constants"
)

// dec2LUT[i] holds the two ASCII digits of i, for i in [0,100). Formatting
// a zero-padded two-digit field becomes a 2-byte copy instead of two
// divisions and two branches for leading zeros.
var dec2LUT [100][2]byte

// dec4LUT[i] holds the four ASCII digits of i, for i in [0,10000).
var dec4LUT [10000][4]byte

func init() {
	for i := 0; i < 100; i++ {
		dec2LUT[i] = [2]byte{byte('0' + i/10), byte('0' + i%10)}
	}
	for i := 0; i < 10000; i++ {
		dec4LUT[i] = [4]byte{
			byte('0' + i/1000%10),
			byte('0' + i/100%10),
			byte('0' + i/10%10),
			byte('0' + i%10),
		}
	}
}

func writeDec2(dst []byte, v int) {
	d := dec2LUT[v%100]
	dst[0], dst[1] = d[0], d[1]
}

func writeDec3(dst []byte, v int) {
	d := dec4LUT[v%1000]
	dst[0], dst[1], dst[2] = d[1], d[2], d[3]
}

func writeDec4(dst []byte, v int) {
	d := dec4LUT[v%10000]
	copy(dst, d[:])
}

// Level mirrors the public Level ordinals (0=trace..4=error) without
// importing the top-level package, so sink stays a leaf dependency.
type Level uint32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// levelStrs are the fixed-width, ANSI-colored level tags the console sink
// writes ahead of every line.
var levelStrs = [...]string{
	LevelTrace: "\x1b[90mTRC\x1b[0m",
	LevelDebug: "\x1b[36mDBG\x1b[0m",
	LevelInfo:  "\x1b[32mINF\x1b[0m",
	LevelWarn:  "\x1b[33mWRN\x1b[0m",
	LevelError: "\x1b[31mERR\x1b[0m",
}

func levelString(l Level) string {
	if int(l) >= len(levelStrs) {
		return "???"
	}
	return levelStrs[l]
}

// TimeLen is the width of TimeCache's rendered prefix:
// "MM-DD HH:MM:SS.mmm.uuu" (14-byte date-time, milliseconds, microseconds).
const TimeLen = 22

// TimeCache renders a nanosecond timestamp into a "MM-DD HH:MM:SS.mmm.uuu"
// prefix, recomputing the 14-byte calendar/clock portion only when the
// whole second changes and rewriting just the millisecond/microsecond
// digits otherwise.
type TimeCache struct {
	lastSec int64
	buf     [TimeLen]byte
}

// Refresh updates the cache for the given nanosecond timestamp.
func (tc *TimeCache) Refresh(nowNS int64) {
	sec := nowNS / int64(time.Second)
	remNS := nowNS % int64(time.Second)
	millis := int(remNS / int64(time.Millisecond))
	micros := int((remNS % int64(time.Millisecond)) / int64(time.Microsecond))

	if sec != tc.lastSec {
		tc.lastSec = sec
		t := time.Unix(sec, 0).UTC()
		mo, d := t.Month(), t.Day()
		h, mi, s := t.Clock()
		writeDec2(tc.buf[0:2], int(mo))
		tc.buf[2] = '-'
		writeDec2(tc.buf[3:5], d)
		tc.buf[5] = ' '
		writeDec2(tc.buf[6:8], h)
		tc.buf[8] = ':'
		writeDec2(tc.buf[9:11], mi)
		tc.buf[11] = ':'
		writeDec2(tc.buf[12:14], s)
		tc.buf[14] = '.'
		tc.buf[18] = '.'
	}
	writeDec3(tc.buf[15:18], millis)
	writeDec3(tc.buf[19:22], micros)
}

// Prefix returns the currently rendered timestamp.
func (tc *TimeCache) Prefix() []byte {
	return tc.buf[:]
}

// TidLen is the width of a rendered tid tag, e.g. "T=00042".
const TidLen = 7

// TidCache memoizes the "T=NNNNN" tag for up to constants.MaxTidCacheEntries
// distinct thread/goroutine ordinals, so the hot render path never formats
// an integer itself.
type TidCache struct {
	entries map[uint32][TidLen]byte
}

// NewTidCache creates an empty cache.
func NewTidCache() *TidCache {
	return &TidCache{entries: make(map[uint32][TidLen]byte)}
}

// Tag returns the rendered "T=NNNNN" bytes for tid, computing and caching
// it on first use.
func (c *TidCache) Tag(tid uint32) []byte {
	if b, ok := c.entries[tid]; ok {
		out := b
		return out[:]
	}
	var b [TidLen]byte
	b[0], b[1] = 'T', '='
	v := tid
	if v > 99999 {
		v = 99999
	}
	writeDec4(b[3:7], int(v%10000))
	if v >= 10000 {
		b[2] = byte('0' + v/10000)
	} else {
		b[2] = '0'
	}
	if len(c.entries) < constants.MaxTidCacheEntries {
		c.entries[tid] = b
	}
	return b[:]
}
