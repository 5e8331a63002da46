//go:build amd64

package tsc

//go:noescape
func rdtscAsm() uint64

// ReadTSC reads the raw cycle counter via the RDTSC instruction.
func ReadTSC() uint64 {
	return rdtscAsm()
}
