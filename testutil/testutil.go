package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Intn returns, as an int, a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float32, minVal, maxVal float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float32()*span
	}
}

// Vec3s returns n vectors with components in [-1, 1).
func (r *RNG) Vec3s(n int) []mgl32.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]mgl32.Vec3, n)
	for i := range out {
		out[i] = mgl32.Vec3{
			r.rand.Float32()*2 - 1,
			r.rand.Float32()*2 - 1,
			r.rand.Float32()*2 - 1,
		}
	}
	return out
}

// Grid is a planar grid of quads in the XZ plane that ripples over time.
type Grid struct {
	nx, nz int
	seed   int64
}

// NewGrid creates a grid of nx by nz quads.
func NewGrid(nx, nz int) *Grid {
	return &Grid{nx: nx, nz: nz, seed: 42}
}

// NumPoints returns the number of grid points.
func (g *Grid) NumPoints() int { return (g.nx + 1) * (g.nz + 1) }

// NumFaces returns the number of quads.
func (g *Grid) NumFaces() int { return g.nx * g.nz }

// Frame holds one sample of the grid and its attributes.
type Frame struct {
	Positions   []mgl32.Vec3
	FaceIndices []int32
	FaceCounts  []int32
	// Normals has one value per face corner.
	Normals []mgl32.Vec3

	// Point attributes.
	Noise    []float32
	Colors   []mgl32.Vec3
	Velocity []mgl32.Vec3
	// Face attribute.
	FaceIDs []float32
}

// Frame generates sample i. Frames are deterministic in i.
func (g *Grid) Frame(i int) Frame {
	t := float64(i) / 24
	rng := NewRNG(g.seed + int64(i))

	f := Frame{
		Positions: make([]mgl32.Vec3, 0, g.NumPoints()),
		Noise:     make([]float32, g.NumPoints()),
		Colors:    make([]mgl32.Vec3, 0, g.NumPoints()),
		Velocity:  make([]mgl32.Vec3, 0, g.NumPoints()),
	}
	for z := 0; z <= g.nz; z++ {
		for x := 0; x <= g.nx; x++ {
			phase := float64(x+z)*0.5 + t*2*math.Pi
			y := float32(0.25 * math.Sin(phase))
			f.Positions = append(f.Positions, mgl32.Vec3{float32(x), y, float32(z)})
			f.Velocity = append(f.Velocity, mgl32.Vec3{0, float32(0.25 * 2 * math.Pi * math.Cos(phase)), 0})
			f.Colors = append(f.Colors, mgl32.Vec3{
				float32(x) / float32(g.nx),
				float32(z) / float32(g.nz),
				0.5 + y,
			})
		}
	}
	rng.FillUniform(f.Noise)

	row := int32(g.nx + 1)
	for z := int32(0); z < int32(g.nz); z++ {
		for x := int32(0); x < int32(g.nx); x++ {
			p := z*row + x
			f.FaceIndices = append(f.FaceIndices, p, p+1, p+row+1, p+row)
			f.FaceCounts = append(f.FaceCounts, 4)
			f.FaceIDs = append(f.FaceIDs, float32(len(f.FaceCounts)-1))
		}
	}

	f.Normals = make([]mgl32.Vec3, 0, len(f.FaceIndices))
	for face := range f.FaceCounts {
		c := f.FaceIndices[face*4 : face*4+4]
		a := f.Positions[c[1]].Sub(f.Positions[c[0]])
		b := f.Positions[c[3]].Sub(f.Positions[c[0]])
		n := b.Cross(a)
		if n.Len() > 0 {
			n = n.Normalize()
		}
		for range c {
			f.Normals = append(f.Normals, n)
		}
	}
	return f
}

// Vec3sInDelta reports whether a and b have equal length and every
// component differs by at most delta.
func Vec3sInDelta(a, b []mgl32.Vec3, delta float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		for c := 0; c < 3; c++ {
			if d := a[i][c] - b[i][c]; d > delta || d < -delta {
				return false
			}
		}
	}
	return true
}
