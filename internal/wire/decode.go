package wire

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DecodeFunc renders one argument tuple's payload (everything after the
// message header) as text into out.
type DecodeFunc func(out TextWriter, payload []byte)

// registry is the process-local decoder table. Entries are typically
// installed by a package-level var initializer at a call site's
// package-init time; an entry is never removed or replaced once installed,
// the same lifetime guarantee the source this was distilled from gets for
// free by embedding a raw, compile-time-fixed function pointer in the
// payload. Every access takes registryMu, so registering a decoder after
// New has started the consumer is also safe.
var (
	registryMu   sync.Mutex
	registry     []DecodeFunc
	registryHash []uint64
)

// RegisterDecoder installs fn under a fresh site ID and returns it. Callers
// pass a fingerprint identifying the call site (nanolog's NewSiteN
// constructors pass the format string alone); RegisterDecoder panics if it
// ever sees the exact same fingerprint registered twice, which happens
// when a package init runs more than once or when two call sites share a
// format string.
func RegisterDecoder(fingerprint string, fn DecodeFunc) uint64 {
	h := xxhash.Sum64String(fingerprint)

	registryMu.Lock()
	defer registryMu.Unlock()

	for i, existing := range registryHash {
		if existing == h {
			panic(fmt.Sprintf("wire: decoder fingerprint collision at site %d", i))
		}
	}

	registry = append(registry, fn)
	registryHash = append(registryHash, h)
	return uint64(len(registry) - 1)
}

// Decode looks up the decoder registered under siteID and renders payload
// through it. siteID comes straight from a message's DecodeFn header field.
func Decode(siteID uint64, out TextWriter, payload []byte) {
	registryMu.Lock()
	fn := registry[siteID]
	registryMu.Unlock()
	fn(out, payload)
}

// RegisteredCount reports how many decoders are currently installed; tests
// use this to assert registration happened exactly once.
func RegisteredCount() int {
	registryMu.Lock()
	defer registryMu.Unlock()
	return len(registry)
}
