package meshcache

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/meshcache/archive"
	"github.com/hupe1980/meshcache/blobstore"
	"github.com/hupe1980/meshcache/cache"
	"github.com/hupe1980/meshcache/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gridDecls = []AttributeDescriptor{
	{Name: "noise", Type: Scalar, Scope: ScopePoint},
	{Name: "faceId", Type: Scalar, Scope: ScopeFace},
	{Name: "Cd", Type: Vector3, Scope: ScopePoint},
	{Name: "v", Type: Vector3, Scope: ScopePoint},
}

// gridSample converts a frame into a full sample laid out for gridDecls.
func gridSample(f testutil.Frame) *GeometrySample {
	return &GeometrySample{
		Positions:      f.Positions,
		FaceIndices:    f.FaceIndices,
		FaceCounts:     f.FaceCounts,
		Normals:        f.Normals,
		NormalScope:    ScopeVertex,
		NormalsPresent: true,
		Scalars:        [][]float32{f.Noise, f.FaceIDs},
		Vectors:        [][]Vec3{f.Colors, f.Velocity},
	}
}

// writeGrid writes n grid samples and n transform samples to store.
func writeGrid(t *testing.T, store blobstore.BlobStore, n int, opts ...Option) {
	t.Helper()
	ctx := context.Background()

	w, err := CreateSingle(ctx, "mem://grid", "xform", "mesh", gridDecls, append([]Option{WithBlobStore(store)}, opts...)...)
	require.NoError(t, err)

	g := testutil.NewGrid(4, 3)
	for i := 0; i < n; i++ {
		require.NoError(t, w.AddFullSample(ctx, 0, gridSample(g.Frame(i))))
		require.NoError(t, w.AddTransformSample(ctx, 0, Vec3{float32(i), 0, 0}, Vec3{1, 1, 1}, Vec3{0, float32(i) * 10, 0}))
	}
	assert.Equal(t, n, w.NumSamples(0))
	assert.Equal(t, n, w.NumTransformSamples(0))
	require.NoError(t, w.Close(ctx))
}

func assertGridSample(t *testing.T, r *Reader, i int) {
	t.Helper()
	want := gridSample(testutil.NewGrid(4, 3).Frame(i))
	got := r.Current()

	assert.Equal(t, i, r.Index())
	assert.Equal(t, want.Positions, got.Positions)
	assert.Equal(t, want.FaceIndices, got.FaceIndices)
	assert.Equal(t, want.FaceCounts, got.FaceCounts)
	assert.Equal(t, want.Normals, got.Normals)
	assert.Equal(t, ScopeVertex, got.NormalScope)
	assert.True(t, got.NormalsPresent)

	noise, err := r.ScalarAttribute("noise")
	require.NoError(t, err)
	assert.Equal(t, want.Scalars[0], noise)
	ids, err := r.ScalarAttribute("faceId")
	require.NoError(t, err)
	assert.Equal(t, want.Scalars[1], ids)
	cd, err := r.VectorAttribute("Cd")
	require.NoError(t, err)
	assert.Equal(t, want.Vectors[0], cd)
	v, err := r.VectorAttribute("v")
	require.NoError(t, err)
	assert.Equal(t, want.Vectors[1], v)
}

func TestScenarioSingleQuad(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	decls := []AttributeDescriptor{{Name: "noise", Type: Scalar, Scope: ScopePoint}}

	w, err := CreateSingle(ctx, "quad", "xform", "mesh", decls, WithBlobStore(store))
	require.NoError(t, err)
	s := quadSample()
	s.Scalars = [][]float32{{0.1, 0.2, 0.3, 0.4}}
	require.NoError(t, w.AddFullSample(ctx, 0, s))
	require.NoError(t, w.Close(ctx))

	r, err := Open(ctx, "quad", "xform", "mesh", decls, WithBlobStore(store))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 1, r.NumSamples())
	assert.Equal(t, 0, r.Index())
	assert.Equal(t, s.Positions, r.Current().Positions)
	assert.Equal(t, []int32{0, 1, 2, 3}, r.Current().FaceIndices)
	assert.Equal(t, []int32{4}, r.Current().FaceCounts)

	noise, err := r.ScalarAttribute("noise")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, noise)

	// No normals were supplied.
	assert.False(t, r.Current().NormalsPresent)
	assert.Nil(t, r.Current().Normals)
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()

	for _, c := range []archive.Compression{archive.CompressionNone, archive.CompressionLZ4, archive.CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			dir := t.TempDir()
			store := blobstore.NewLocalStore(dir)
			writeGrid(t, store, 5, WithCompression(c))

			r, err := Open(ctx, dir, "/xform", "mesh", gridDecls)
			require.NoError(t, err)
			defer r.Close()

			require.Equal(t, 5, r.NumSamples())
			for i := 0; i < 5; i++ {
				require.NoError(t, r.Seek(ctx, i))
				assertGridSample(t, r, i)
			}
			assert.InDelta(t, 4.0/24, r.Time(), 1e-9)
		})
	}
}

func TestReaderNavigation(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	writeGrid(t, store, 3)

	r, err := Open(ctx, "mem://grid", "xform", "mesh", gridDecls, WithBlobStore(store))
	require.NoError(t, err)
	defer r.Close()

	t.Run("OpenPositionsAtZero", func(t *testing.T) {
		assertGridSample(t, r, 0)
	})

	t.Run("StepBackwardAtZero", func(t *testing.T) {
		err := r.StepBackward(ctx)
		assert.ErrorIs(t, err, ErrOutOfRange)
		var ie *SampleIndexError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, -1, ie.Index)
		assert.Equal(t, 0, r.Index())
	})

	t.Run("StepForward", func(t *testing.T) {
		require.NoError(t, r.StepForward(ctx))
		assertGridSample(t, r, 1)
		require.NoError(t, r.StepForward(ctx))
		assertGridSample(t, r, 2)

		assert.ErrorIs(t, r.StepForward(ctx), ErrOutOfRange)
		assert.Equal(t, 2, r.Index())
		assertGridSample(t, r, 2)
	})

	t.Run("StepBackward", func(t *testing.T) {
		require.NoError(t, r.StepBackward(ctx))
		assertGridSample(t, r, 1)
	})

	t.Run("Seek", func(t *testing.T) {
		assert.ErrorIs(t, r.Seek(ctx, -1), ErrOutOfRange)
		assert.ErrorIs(t, r.Seek(ctx, 3), ErrOutOfRange)
		assert.Equal(t, 1, r.Index())

		require.NoError(t, r.Seek(ctx, 0))
		assertGridSample(t, r, 0)
	})

	t.Run("Transforms", func(t *testing.T) {
		require.Equal(t, 3, r.NumTransformSamples())
		m, err := r.TransformMatrix(ctx, 2)
		require.NoError(t, err)
		want := EulerTransform(Vec3{2, 0, 0}, Vec3{1, 1, 1}, Vec3{0, 20, 0})
		assert.True(t, m.ApproxEqual(want))

		_, err = r.TransformMatrix(ctx, 3)
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("UndeclaredAttribute", func(t *testing.T) {
		_, err := r.ScalarAttribute("missing")
		assert.ErrorIs(t, err, ErrUndeclaredAttribute)
		_, err = r.ScalarAttribute("Cd")
		assert.ErrorIs(t, err, ErrUndeclaredAttribute)
		_, err = r.VectorAttribute("noise")
		assert.ErrorIs(t, err, ErrUndeclaredAttribute)
		_, err = r.AttributePresent("missing")
		assert.ErrorIs(t, err, ErrUndeclaredAttribute)
	})
}

func TestReaderOnlyLoadsDeclared(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	writeGrid(t, store, 1)

	decls := []AttributeDescriptor{{Name: "v", Type: Vector3, Scope: ScopePoint}}
	r, err := Open(ctx, "mem://grid", "xform", "mesh", decls, WithBlobStore(store))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 0, r.Schema().NumScalars())
	assert.Len(t, r.Current().Scalars, 0)
	require.Len(t, r.Current().Vectors, 1)
	assert.Equal(t, testutil.NewGrid(4, 3).Frame(0).Velocity, r.Current().Vectors[0])

	_, err = r.ScalarAttribute("noise")
	assert.ErrorIs(t, err, ErrUndeclaredAttribute)
}

func TestAbsentAttributeKeepsPreviousContents(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	g := testutil.NewGrid(2, 2)

	w, err := CreateSingle(ctx, "mem", "xform", "mesh", gridDecls, WithBlobStore(store))
	require.NoError(t, err)
	require.NoError(t, w.AddFullSample(ctx, 0, gridSample(g.Frame(0))))
	f1 := g.Frame(1)
	require.NoError(t, w.AddSample(ctx, 0, f1.Positions, f1.FaceIndices, f1.FaceCounts))
	s2 := gridSample(g.Frame(2))
	s2.VectorPresent = []bool{true, false}
	s2.Scalars = s2.Scalars[:1]
	require.NoError(t, w.AddFullSample(ctx, 0, s2))
	require.NoError(t, w.Close(ctx))

	r, err := Open(ctx, "mem", "xform", "mesh", gridDecls, WithBlobStore(store))
	require.NoError(t, err)
	defer r.Close()

	require.True(t, r.Current().NormalsPresent)
	require.NotEmpty(t, r.Current().Normals)

	require.NoError(t, r.StepForward(ctx))
	cur := r.Current()
	assert.Equal(t, f1.Positions, cur.Positions)
	assert.False(t, cur.NormalsPresent)
	assert.Nil(t, cur.Normals, "absent normals are cleared, unlike attribute slots")

	present, err := r.AttributePresent("noise")
	require.NoError(t, err)
	assert.False(t, present)
	noise, err := r.ScalarAttribute("noise")
	require.NoError(t, err)
	assert.Equal(t, g.Frame(0).Noise, noise, "absent slot keeps the previous sample")

	require.NoError(t, r.StepForward(ctx))
	present, _ = r.AttributePresent("noise")
	assert.True(t, present)
	present, _ = r.AttributePresent("faceId")
	assert.False(t, present)
	present, _ = r.AttributePresent("Cd")
	assert.True(t, present)
	present, _ = r.AttributePresent("v")
	assert.False(t, present)
	assert.Equal(t, g.Frame(2).Noise, r.Current().Scalars[0])
	assert.Equal(t, g.Frame(0).Velocity, r.Current().Vectors[1])
}

func TestColorRouting(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	decls := []AttributeDescriptor{
		{Name: "Cd", Type: Vector3, Scope: ScopePoint},
		{Name: "extra_vec", Type: Vector3, Scope: ScopePoint},
	}
	cdValues := []Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}}
	extraValues := []Vec3{{5, 5, 5}, {6, 6, 6}, {7, 7, 7}, {8, 8, 8}}

	w, err := CreateSingle(ctx, "mem", "xform", "mesh", decls, WithBlobStore(store))
	require.NoError(t, err)

	obj := w.objects[0]
	require.Len(t, obj.colors, 1)
	require.Len(t, obj.vectors, 1)
	assert.Equal(t, vectorRoute{kind: VectorColor, table: 0}, obj.route[0])
	assert.Equal(t, vectorRoute{kind: VectorPlain, table: 0}, obj.route[1])

	s := quadSample()
	s.Vectors = [][]Vec3{cdValues, extraValues}
	require.NoError(t, w.AddFullSample(ctx, 0, s))
	require.NoError(t, w.Close(ctx))

	ar, err := archive.Open(ctx, store)
	require.NoError(t, err)
	defer ar.Close()
	mesh, err := ar.Lookup("xform", "mesh")
	require.NoError(t, err)

	cd, err := mesh.ArbGeomParam("Cd")
	require.NoError(t, err)
	assert.Equal(t, archive.InterpretColor, cd.Interpretation())
	got, err := cd.ReadVec3s(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, cdValues, got)

	extra, err := mesh.ArbGeomParam("extra_vec")
	require.NoError(t, err)
	assert.Equal(t, archive.InterpretVector, extra.Interpretation())
	got, err = extra.ReadVec3s(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, extraValues, got)
}

func TestMultipleObjects(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	g := testutil.NewGrid(2, 1)

	w, err := Create(ctx, "mem", []ObjectSpec{
		{TransformPath: "/rig/body", MeshPath: "bodyShape", Attributes: gridDecls[:1]},
		{TransformPath: "/rig/head", MeshPath: "headShape"},
	}, WithBlobStore(store))
	require.NoError(t, err)
	assert.Equal(t, 2, w.NumObjects())

	for i := 0; i < 3; i++ {
		f := g.Frame(i)
		s := &GeometrySample{Positions: f.Positions, FaceIndices: f.FaceIndices, FaceCounts: f.FaceCounts, Scalars: [][]float32{f.Noise}}
		require.NoError(t, w.AddFullSample(ctx, 0, s))
	}
	f := g.Frame(9)
	require.NoError(t, w.AddSample(ctx, 1, f.Positions, f.FaceIndices, f.FaceCounts))
	require.NoError(t, w.AddTransformMatrix(ctx, 1, Mat4{}))
	require.NoError(t, w.Close(ctx))

	body, err := Open(ctx, "mem", "rig/body", "bodyShape", gridDecls[:1], WithBlobStore(store))
	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, 3, body.NumSamples())
	assert.Equal(t, 0, body.NumTransformSamples())
	assert.Equal(t, "/rig/body/bodyShape", body.MeshPath())

	head, err := Open(ctx, "mem", "/rig/head", "headShape", nil, WithBlobStore(store))
	require.NoError(t, err)
	defer head.Close()
	assert.Equal(t, 1, head.NumSamples())
	assert.Equal(t, f.Positions, head.Current().Positions)
	assert.Equal(t, 1, head.NumTransformSamples())

	t.Run("DuplicateTransform", func(t *testing.T) {
		_, err := Create(ctx, "mem2", []ObjectSpec{
			{TransformPath: "a", MeshPath: "m1"},
			{TransformPath: "a", MeshPath: "m2"},
		}, WithBlobStore(blobstore.NewMemoryStore()))
		var oe *OpenError
		require.True(t, errors.As(err, &oe))
	})
}

func TestZeroSampleMesh(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	w, err := CreateSingle(ctx, "mem", "xform", "mesh", nil, WithBlobStore(store))
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	r, err := Open(ctx, "mem", "xform", "mesh", nil, WithBlobStore(store))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 0, r.NumSamples())
	assert.Equal(t, 0, r.Index())
	assert.Empty(t, r.Current().Positions)
	assert.ErrorIs(t, r.StepForward(ctx), ErrOutOfRange)
	assert.ErrorIs(t, r.Seek(ctx, 0), ErrOutOfRange)
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("NoArchive", func(t *testing.T) {
		_, err := Open(ctx, "empty", "xform", "mesh", nil, WithBlobStore(blobstore.NewMemoryStore()))
		var oe *OpenError
		require.True(t, errors.As(err, &oe))
		assert.Equal(t, "empty", oe.Path)
		assert.ErrorIs(t, err, ErrBackend)
		assert.ErrorIs(t, err, archive.ErrNotFound)
	})

	t.Run("MissingLocalDirectory", func(t *testing.T) {
		_, err := Open(ctx, t.TempDir()+"/nope", "xform", "mesh", nil)
		assert.ErrorIs(t, err, ErrBackend)
	})

	store := blobstore.NewMemoryStore()
	writeGrid(t, store, 1)

	t.Run("MissingTransform", func(t *testing.T) {
		_, err := Open(ctx, "mem", "nope", "mesh", nil, WithBlobStore(store))
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("MissingMesh", func(t *testing.T) {
		_, err := Open(ctx, "mem", "xform", "nope", nil, WithBlobStore(store))
		assert.ErrorIs(t, err, ErrObjectNotFound)
		var oe *OpenError
		require.True(t, errors.As(err, &oe))
		assert.Equal(t, "/xform/nope", oe.Object)
	})

	t.Run("MeshIsNotTransform", func(t *testing.T) {
		_, err := Open(ctx, "mem", "xform/mesh", "mesh", nil, WithBlobStore(store))
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("BadDeclarationsAreDiagnostics", func(t *testing.T) {
		decls := append([]AttributeDescriptor{{Name: "x", Type: ElementType(7)}}, gridDecls...)
		r, err := Open(ctx, "mem", "xform", "mesh", decls, WithBlobStore(store))
		require.NoError(t, err)
		defer r.Close()
		require.Len(t, r.Diagnostics(), 1)
		assert.ErrorIs(t, r.Diagnostics()[0], ErrUnknownElementType)
		assertGridSample(t, r, 0)
	})

	t.Run("TypeMismatchIsAbsent", func(t *testing.T) {
		decls := []AttributeDescriptor{{Name: "Cd", Type: Scalar, Scope: ScopePoint}}
		r, err := Open(ctx, "mem", "xform", "mesh", decls, WithBlobStore(store))
		require.NoError(t, err)
		defer r.Close()
		present, err := r.AttributePresent("Cd")
		require.NoError(t, err)
		assert.False(t, present)
	})
}

func TestWriterErrors(t *testing.T) {
	ctx := context.Background()
	q := quadSample()

	t.Run("NilWriter", func(t *testing.T) {
		var w *Writer
		assert.ErrorIs(t, w.AddSample(ctx, 0, q.Positions, q.FaceIndices, q.FaceCounts), ErrNotOpen)
	})

	store := blobstore.NewMemoryStore()
	decls := []AttributeDescriptor{{Name: "noise", Type: Scalar, Scope: ScopePoint}}
	w, err := CreateSingle(ctx, "mem", "xform", "mesh", decls, WithBlobStore(store))
	require.NoError(t, err)

	t.Run("InvalidMeshIndex", func(t *testing.T) {
		assert.ErrorIs(t, w.AddSample(ctx, 1, q.Positions, q.FaceIndices, q.FaceCounts), ErrInvalidMeshIndex)
		assert.ErrorIs(t, w.AddTransformMatrix(ctx, -1, Mat4{}), ErrInvalidMeshIndex)
	})

	t.Run("TooManyArrays", func(t *testing.T) {
		s := quadSample()
		s.Scalars = [][]float32{{1, 2, 3, 4}, {5, 6, 7, 8}}
		assert.ErrorIs(t, w.AddFullSample(ctx, 0, s), ErrInvalidSample)

		s = quadSample()
		s.Vectors = [][]Vec3{{}}
		assert.ErrorIs(t, w.AddFullSample(ctx, 0, s), ErrInvalidSample)
		assert.Equal(t, 0, w.NumSamples(0))
	})

	t.Run("InvalidNormalScope", func(t *testing.T) {
		s := quadSample()
		s.Normals = []Vec3{{0, 0, 1}}
		s.NormalScope = Scope(9)
		assert.ErrorIs(t, w.AddFullSample(ctx, 0, s), ErrUnknownScope)
		assert.Equal(t, 0, w.NumSamples(0))
	})

	require.NoError(t, w.AddSample(ctx, 0, q.Positions, q.FaceIndices, q.FaceCounts))
	require.NoError(t, w.Close(ctx))
	require.NoError(t, w.Close(ctx))

	t.Run("AfterClose", func(t *testing.T) {
		assert.ErrorIs(t, w.AddSample(ctx, 0, q.Positions, q.FaceIndices, q.FaceCounts), ErrNotOpen)
		assert.ErrorIs(t, w.AddFullSample(ctx, 0, q), ErrNotOpen)
		assert.ErrorIs(t, w.AddTransformSample(ctx, 0, Vec3{}, Vec3{1, 1, 1}, Vec3{}), ErrNotOpen)
	})

	t.Run("NothingPartialWasWritten", func(t *testing.T) {
		r, err := Open(ctx, "mem", "xform", "mesh", decls, WithBlobStore(store))
		require.NoError(t, err)
		defer r.Close()
		assert.Equal(t, 1, r.NumSamples())
	})
}

func TestReaderClosed(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	writeGrid(t, store, 2)

	r, err := Open(ctx, "mem", "xform", "mesh", gridDecls, WithBlobStore(store))
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.ErrorIs(t, r.StepForward(ctx), ErrClosed)
	assert.ErrorIs(t, r.Seek(ctx, 0), ErrClosed)
	_, err = r.ScalarAttribute("noise")
	assert.ErrorIs(t, err, ErrClosed)

	var nr *Reader
	assert.ErrorIs(t, nr.StepForward(ctx), ErrNotOpen)
}

func TestReplaceArchive(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	writeGrid(t, store, 4)
	writeGrid(t, store, 2)

	r, err := Open(ctx, "mem", "xform", "mesh", gridDecls, WithBlobStore(store))
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 2, r.NumSamples())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{archive.CurrentFileName, archive.ManifestName(2), archive.DataName(2)}, names)
}

func TestMetricsCollector(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	metrics := &BasicMetricsCollector{}
	q := quadSample()

	w, err := CreateSingle(ctx, "mem", "xform", "mesh", nil, WithBlobStore(store), WithMetricsCollector(metrics))
	require.NoError(t, err)
	require.NoError(t, w.AddSample(ctx, 0, q.Positions, q.FaceIndices, q.FaceCounts))
	require.NoError(t, w.AddFullSample(ctx, 0, q))
	require.NoError(t, w.AddTransformMatrix(ctx, 0, Mat4{}))
	assert.ErrorIs(t, w.AddFullSample(ctx, 0, &GeometrySample{Scalars: [][]float32{{1}}}), ErrInvalidSample)
	require.NoError(t, w.Close(ctx))

	r, err := Open(ctx, "mem", "xform", "mesh", nil, WithBlobStore(store), WithMetricsCollector(metrics))
	require.NoError(t, err)
	require.NoError(t, r.StepForward(ctx))
	require.NoError(t, r.Close())

	_, err = Open(ctx, "mem", "nope", "mesh", nil, WithBlobStore(store), WithMetricsCollector(metrics))
	require.Error(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats.OpenCount)
	assert.Equal(t, int64(1), stats.OpenErrors)
	assert.Equal(t, int64(3), stats.AppendCount)
	assert.Equal(t, int64(2), stats.FullAppends)
	assert.Equal(t, int64(1), stats.AppendErrors)
	assert.Equal(t, int64(1), stats.TransformCount)
	assert.Equal(t, int64(2), stats.ReadCount)
	assert.Zero(t, stats.ReadErrors)
}

func TestNormalScopePerSample(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	pointNormals := quadSample()
	pointNormals.Normals = []Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	pointNormals.NormalScope = ScopePoint
	pointNormals.NormalsPresent = true

	faceNormals := quadSample()
	faceNormals.Normals = []Vec3{{0, 0, -1}}
	faceNormals.NormalScope = ScopeFace
	faceNormals.NormalsPresent = true

	w, err := CreateSingle(ctx, "mem", "xform", "mesh", nil, WithBlobStore(store))
	require.NoError(t, err)
	require.NoError(t, w.AddFullSample(ctx, 0, pointNormals))
	require.NoError(t, w.AddFullSample(ctx, 0, faceNormals))
	require.NoError(t, w.AddFullSample(ctx, 0, pointNormals))
	require.NoError(t, w.Close(ctx))

	r, err := Open(ctx, "mem", "xform", "mesh", nil, WithBlobStore(store))
	require.NoError(t, err)
	defer r.Close()

	want := []*GeometrySample{pointNormals, faceNormals, pointNormals}
	for i, s := range want {
		require.NoError(t, r.Seek(ctx, i))
		got := r.Current()
		assert.Equal(t, s.NormalScope, got.NormalScope, "sample %d", i)
		assert.Equal(t, s.Normals, got.Normals, "sample %d", i)
		assert.NoError(t, got.Validate(r.Schema()), "sample %d", i)
	}

	// The copy validates and reproduces every scope.
	out := blobstore.NewMemoryStore()
	n, err := Transcode(ctx, TranscodeSpec{
		InPath:        "mem",
		OutPath:       "out",
		TransformPath: "xform",
		MeshPath:      "mesh",
		InOptions:     []Option{WithBlobStore(store)},
		OutOptions:    []Option{WithBlobStore(out)},
		Validate:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	cr, err := Open(ctx, "out", "xform", "mesh", nil, WithBlobStore(out))
	require.NoError(t, err)
	defer cr.Close()
	require.NoError(t, cr.Seek(ctx, 1))
	assert.Equal(t, ScopeFace, cr.Current().NormalScope)
}

func TestSharedChunkCache(t *testing.T) {
	ctx := context.Background()
	lru := cache.NewLRU(1<<20, nil)

	open := func(x float32) *Reader {
		store := blobstore.NewMemoryStore()
		s := quadSample()
		for i := range s.Positions {
			s.Positions[i][0] += x
		}
		w, err := CreateSingle(ctx, "mem", "xform", "mesh", nil, WithBlobStore(store))
		require.NoError(t, err)
		require.NoError(t, w.AddFullSample(ctx, 0, s))
		require.NoError(t, w.Close(ctx))

		r, err := Open(ctx, "mem", "xform", "mesh", nil, WithBlobStore(store), WithChunkCache(lru))
		require.NoError(t, err)
		return r
	}

	a := open(0)
	defer a.Close()
	b := open(100)
	defer b.Close()

	assert.Equal(t, Vec3{0, 0, 0}, a.Current().Positions[0])
	assert.Equal(t, Vec3{100, 0, 0}, b.Current().Positions[0])
}
