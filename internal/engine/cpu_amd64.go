//go:build amd64

package engine

import "golang.org/x/sys/cpu"

// parallelThreshold returns the range length above which product tree
// halves are multiplied concurrently. With BMI2 and ADX the sequential
// multiplication is fast enough to warrant a higher threshold.
func parallelThreshold() uint64 {
	if cpu.X86.HasBMI2 && cpu.X86.HasADX {
		return 4096
	}
	return 2048
}
