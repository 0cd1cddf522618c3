package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meshcache"
	"github.com/hupe1980/meshcache/testutil"
)

var testDecls = []meshcache.AttributeDescriptor{
	{Name: "noise", Type: meshcache.Scalar, Scope: meshcache.ScopePoint},
	{Name: "Cd", Type: meshcache.Vector3, Scope: meshcache.ScopePoint},
}

// writeArchive writes n grid samples to a local archive at dir.
func writeArchive(t *testing.T, dir string, n int) {
	t.Helper()
	ctx := context.Background()

	w, err := meshcache.CreateSingle(ctx, dir, "shot", "grid", testDecls)
	require.NoError(t, err)

	g := testutil.NewGrid(3, 3)
	for i := 0; i < n; i++ {
		f := g.Frame(i)
		require.NoError(t, w.AddFullSample(ctx, 0, &meshcache.GeometrySample{
			Positions:   f.Positions,
			FaceIndices: f.FaceIndices,
			FaceCounts:  f.FaceCounts,
			Scalars:     [][]float32{f.Noise},
			Vectors:     [][]meshcache.Vec3{f.Colors},
		}))
		require.NoError(t, w.AddTransformSample(ctx, 0, meshcache.Vec3{float32(i), 0, 0}, meshcache.Vec3{1, 1, 1}, meshcache.Vec3{}))
	}
	require.NoError(t, w.Close(ctx))
}

// run executes the app with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"meshcache"}, args...))
	return stdout.String(), stderr.String(), err
}
