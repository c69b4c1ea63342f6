package utils

import (
	"fmt"
	"strings"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// BandMatrix stores an N x N matrix with KL sub-diagonals and KU
// super-diagonals row by row. Entry (i,j) lives at band column j-i+KL.
type BandMatrix struct {
	N, KL, KU int
	Data      []float64
}

func NewBandMatrix(N, KL, KU int) (B *BandMatrix) {
	B = &BandMatrix{
		N:    N,
		KL:   KL,
		KU:   KU,
		Data: make([]float64, N*(KL+KU+1)),
	}
	return
}

// Width is the number of stored band columns per row
func (B *BandMatrix) Width() int { return B.KL + B.KU + 1 }

// InBand reports whether column j of row i is stored
func (B *BandMatrix) InBand(i, j int) bool {
	return i >= 0 && i < B.N && j >= 0 && j < B.N && j-i >= -B.KL && j-i <= B.KU
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (B *BandMatrix) Dims() (r, c int) { return B.N, B.N }
func (B *BandMatrix) At(i, j int) float64 {
	if !B.InBand(i, j) {
		return 0
	}
	return B.Data[i*B.Width()+j-i+B.KL]
}
func (B *BandMatrix) T() mat.Matrix { return mat.Transpose{Matrix: B} }

func (B *BandMatrix) Set(i, j int, val float64) {
	if !B.InBand(i, j) {
		panic(fmt.Errorf("index (%d,%d) outside band [-%d,+%d]", i, j, B.KL, B.KU))
	}
	B.Data[i*B.Width()+j-i+B.KL] = val
}

func (B *BandMatrix) Add(i, j int, val float64) {
	B.Set(i, j, B.At(i, j)+val)
}

func (B *BandMatrix) Zero() {
	for i := range B.Data {
		B.Data[i] = 0
	}
}

// CopyFrom overwrites B with the contents of A, which must share its shape
func (B *BandMatrix) CopyFrom(A *BandMatrix) {
	if A.N != B.N || A.KL != B.KL || A.KU != B.KU {
		panic("band shapes differ")
	}
	copy(B.Data, A.Data)
}

func (B *BandMatrix) Copy() (R *BandMatrix) {
	R = NewBandMatrix(B.N, B.KL, B.KU)
	copy(R.Data, B.Data)
	return
}

// SwapRows exchanges rows i and k over columns [j0,j1], all of which must be
// stored in both rows
func (B *BandMatrix) SwapRows(i, k, j0, j1 int) {
	for j := j0; j <= j1; j++ {
		a, b := B.At(i, j), B.At(k, j)
		B.Set(i, j, b)
		B.Set(k, j, a)
	}
}

// ToDOK exports the stored entries, zeros excluded
func (B *BandMatrix) ToDOK() (D *sparse.DOK) {
	D = sparse.NewDOK(B.N, B.N)
	for i := 0; i < B.N; i++ {
		for j := max(0, i-B.KL); j <= min(B.N-1, i+B.KU); j++ {
			if val := B.At(i, j); val != 0 {
				D.Set(i, j, val)
			}
		}
	}
	return
}

func (B *BandMatrix) ToDense() *mat.Dense {
	return B.ToDOK().ToDense()
}

func (B *BandMatrix) String() string {
	var sb strings.Builder
	for i := 0; i < B.N; i++ {
		row := B.Data[i*B.Width() : (i+1)*B.Width()]
		for n, val := range row {
			if n > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(fmt.Sprintf("%12.5g", val))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
