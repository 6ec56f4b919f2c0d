package control

import (
	"github.com/golang/geo/r3"
)

type targetFilter interface {
	Reset()
	Next(x r3.Vector) r3.Vector
}

// movingAverageFilter averages the last filterSize samples. Until the window fills it averages what it has.
type movingAverageFilter struct {
	filterSize int
	x          []r3.Vector
	idx        int
	sum        r3.Vector
}

func (f *movingAverageFilter) Reset() {
	f.x = f.x[:0]
	f.idx = 0
	f.sum = r3.Vector{}
}

func (f *movingAverageFilter) Next(x r3.Vector) r3.Vector {
	if len(f.x) < f.filterSize {
		f.x = append(f.x, x)
		f.sum = f.sum.Add(x)
		return f.sum.Mul(1 / float64(len(f.x)))
	}
	f.sum = f.sum.Sub(f.x[f.idx]).Add(x)
	f.x[f.idx] = x
	f.idx = (f.idx + 1) % f.filterSize
	return f.sum.Mul(1 / float64(f.filterSize))
}

// rateLimitFilter moves its output toward the input by at most maxStep per sample.
type rateLimitFilter struct {
	maxStep float64
	last    r3.Vector
	primed  bool
}

func (f *rateLimitFilter) Reset() {
	f.primed = false
}

func (f *rateLimitFilter) Next(x r3.Vector) r3.Vector {
	if !f.primed {
		f.last = x
		f.primed = true
		return x
	}
	d := x.Sub(f.last)
	if n := d.Norm(); n > f.maxStep {
		d = d.Mul(f.maxStep / n)
	}
	f.last = f.last.Add(d)
	return f.last
}
