package command

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/hupe1980/meshcache"
	"github.com/hupe1980/meshcache/archive"
	"github.com/hupe1980/meshcache/blobstore"
)

func TestCopyCommand(t *testing.T) {
	ctx := context.Background()
	in := filepath.Join(t.TempDir(), "in")
	out := filepath.Join(t.TempDir(), "out")
	writeArchive(t, in, 5)

	stdout, _, err := run(t, "copy",
		"--in", in,
		"--out", out,
		"--xform", "shot",
		"--mesh", "grid",
		"--attr", "noise:scalar:point",
		"--attr", "Cd:vector3:point",
		"--compression", "zstd",
		"--fps", "30",
		"--validate",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "copied 5 samples")

	r, err := meshcache.Open(ctx, out, "shot", "grid", testDecls)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 5, r.NumSamples())
	assert.Equal(t, 5, r.NumTransformSamples())
	assert.InDelta(t, 1.0/30, r.TimeSampling().Step, 1e-9)
	present, err := r.AttributePresent("Cd")
	require.NoError(t, err)
	assert.True(t, present)

	ar, err := archive.Open(ctx, blobstore.NewLocalStore(out))
	require.NoError(t, err)
	defer ar.Close()
	mesh, err := ar.Lookup("shot", "grid")
	require.NoError(t, err)
	cd, err := mesh.ArbGeomParam("Cd")
	require.NoError(t, err)
	assert.Equal(t, archive.InterpretColor, cd.Interpretation())
}

func TestCopyCommandConfigFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	writeArchive(t, in, 3)

	job := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(job, []byte(`
in: `+in+`
out: `+out+`
transform: shot
mesh: grid
attributes:
  - name: noise
    type: scalar
    scope: point
  - name: bogus
    type: matrix
    scope: point
archive:
  compression: none
`), 0o600))

	_, stderr, err := run(t, "--log-format", "json", "copy", "--config", job)
	require.NoError(t, err)
	assert.Contains(t, stderr, "attribute declaration ignored")

	r, err := meshcache.Open(ctx, out, "shot", "grid", testDecls[:1])
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 3, r.NumSamples())
	// Input sampling is kept when no rate is configured.
	assert.InDelta(t, archive.DefaultTimeSampling.Step, r.TimeSampling().Step, 1e-9)
}

func TestCopyCommandErrors(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in")
	writeArchive(t, in, 1)

	t.Run("MissingArgs", func(t *testing.T) {
		_, _, err := run(t, "copy", "--in", in)
		assert.ErrorIs(t, err, ErrUsage)
	})

	t.Run("BadCompression", func(t *testing.T) {
		_, _, err := run(t, "copy", "--in", in, "--out", t.TempDir(), "--xform", "shot", "--mesh", "grid", "--compression", "brotli")
		assert.ErrorIs(t, err, ErrUsage)
	})

	t.Run("BadLogLevel", func(t *testing.T) {
		_, _, err := run(t, "--log-level", "loud", "copy", "--in", in, "--out", t.TempDir(), "--xform", "shot", "--mesh", "grid")
		assert.ErrorIs(t, err, ErrUsage)
	})

	t.Run("MissingObject", func(t *testing.T) {
		_, _, err := run(t, "copy", "--in", in, "--out", t.TempDir(), "--xform", "shot", "--mesh", "nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, meshcache.ErrObjectNotFound)
	})

	t.Run("MissingInput", func(t *testing.T) {
		_, _, err := run(t, "copy", "--in", filepath.Join(t.TempDir(), "none"), "--out", t.TempDir(), "--xform", "shot", "--mesh", "grid")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUsage)
	})
}

func TestCopyOverrides(t *testing.T) {
	var got map[string]any
	app := App()
	for _, c := range app.Commands {
		if c.Name == "copy" {
			c.Action = func(c *cli.Context) error {
				got = copyOverrides(c)
				return nil
			}
		}
	}
	require.NoError(t, app.Run([]string{"meshcache", "--log-level", "debug", "copy", "--in", "a", "--fps", "25", "--validate"}))

	assert.Equal(t, "a", got["in"])
	assert.Equal(t, 25.0, got["archive.fps"])
	assert.Equal(t, true, got["validate"])
	assert.Equal(t, "debug", got["log.level"])
	assert.NotContains(t, got, "out")
}
