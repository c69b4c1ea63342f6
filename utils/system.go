package utils

import (
	"fmt"
	"math"
	"runtime"

	"gonum.org/v1/gonum/mat"
)

func GetMemUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	// For info on each, see: https://golang.org/pkg/runtime/#MemStats
	bToMb := func(b uint64) uint64 {
		return b / 1024 / 1024
	}
	return fmt.Sprintf("Alloc = %v MiB TotalAlloc = %v MiB Sys = %v MiB NumGC = %v",
		bToMb(m.Alloc), bToMb(m.TotalAlloc), bToMb(m.Sys), m.NumGC)
}

func IsNanPanic(A any) {
	if IsNan(A) {
		panic("NAN found")
	}
}

// IsNan reports NaN or Inf anywhere in A
func IsNan(A any) bool {
	bad := func(f float64) bool { return math.IsNaN(f) || math.IsInf(f, 0) }
	switch v := A.(type) {
	case float64:
		return bad(v)
	case []float64:
		for _, f := range v {
			if bad(f) {
				return true
			}
		}
	case *BandMatrix:
		return IsNan(v.Data)
	case *mat.Dense:
		return IsNan(v.RawMatrix().Data)
	case mat.Matrix:
		r, c := v.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if bad(v.At(i, j)) {
					return true
				}
			}
		}
	}
	return false
}
