//go:build arm64

package tsc

//go:noescape
func rdtscAsm() uint64

// ReadTSC reads the CNTVCT_EL0 virtual counter register.
func ReadTSC() uint64 {
	return rdtscAsm()
}
