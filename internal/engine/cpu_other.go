//go:build !amd64

package engine

func parallelThreshold() uint64 { return 2048 }
