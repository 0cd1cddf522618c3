// Package testutil provides testing utilities for meshcache.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded RNG and procedural animated meshes.
//
// # Random Values
//
//	rng := testutil.NewRNG(seed)
//	vals := make([]float32, 64)
//	rng.FillUniform(vals)      // uniform [0, 1)
//
// # Animated Grid
//
//	g := testutil.NewGrid(4, 3)          // 4x3 quads, 20 points
//	f := g.Frame(7)                      // deterministic sample 7
//	f.Positions, f.FaceIndices, f.FaceCounts
//	f.Noise, f.Colors, f.Velocity        // point attributes
//	f.FaceIDs                            // face attribute
package testutil
