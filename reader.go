package meshcache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/meshcache/archive"
	"golang.org/x/sync/errgroup"
)

// Reader is a cursor over the samples of one mesh object.
//
// A Reader is always positioned: Open loads sample 0 and every successful
// move loads the new sample. A Reader is owned by one goroutine; open one
// Reader per pipeline.
type Reader struct {
	path   string
	opts   options
	logger *Logger

	ar    *archive.Reader
	xform *archive.ReadObject
	mesh  *archive.ReadObject

	positions   *archive.ReadProperty
	faceIndices *archive.ReadProperty
	faceCounts  *archive.ReadProperty
	normals     *archive.ReadProperty
	transform   *archive.ReadProperty

	// Per slot; nil when the attribute is missing from the archive.
	scalars []*archive.ReadProperty
	vectors []*archive.ReadProperty

	index *AttributeIndex
	diags []error

	count   int
	current int
	sample  *GeometrySample
	closed  bool
}

// Open opens the archive at path and positions a cursor at sample 0 of the
// mesh meshPath below the transform transformPath.
//
// decls declares the custom attributes to load. Malformed declarations are
// dropped and logged; see BuildIndex. Declared attributes missing from the
// archive are reported as absent by AttributePresent.
func Open(ctx context.Context, path, transformPath, meshPath string, decls []AttributeDescriptor, optFns ...Option) (*Reader, error) {
	start := time.Now()
	opts := applyOptions(optFns)
	logger := opts.logger.WithArchive(path)

	r, err := openReader(ctx, path, transformPath, meshPath, decls, opts, logger)
	objects := 0
	if err == nil {
		objects = r.ar.ObjectCount()
	}
	logger.LogOpen(ctx, "read", objects, err)
	opts.metricsCollector.RecordOpen("read", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func openReader(ctx context.Context, path, transformPath, meshPath string, decls []AttributeDescriptor, opts options, logger *Logger) (*Reader, error) {
	ar, err := archive.Open(ctx, opts.resolveStore(path), opts.archiveOptions()...)
	if err != nil {
		return nil, &OpenError{Path: path, cause: backendError("open archive", err)}
	}

	r := &Reader{
		path:   path,
		opts:   opts,
		logger: logger,
		ar:     ar,
	}
	if err := r.resolve(transformPath, meshPath); err != nil {
		_ = ar.Close()
		return nil, &OpenError{Path: path, Object: joinPath(transformPath, meshPath), cause: err}
	}
	r.logger = logger.WithObject(r.mesh.Path())

	r.index, r.diags = BuildIndex(decls)
	for _, d := range r.diags {
		r.logger.LogSchemaDiagnostic(ctx, d)
	}
	r.bindAttributes(ctx)

	r.count = r.positions.NumSamples()
	r.sample = newGeometrySample(r.index)
	if r.count == 0 {
		return r, nil
	}
	if err := r.load(ctx, 0); err != nil {
		_ = ar.Close()
		return nil, &OpenError{Path: path, Object: r.mesh.Path(), cause: err}
	}
	return r, nil
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinPath(transformPath, meshPath string) string {
	return "/" + strings.Join(append(splitPath(transformPath), splitPath(meshPath)...), "/")
}

func (r *Reader) resolve(transformPath, meshPath string) error {
	xs := splitPath(transformPath)
	ms := splitPath(meshPath)
	if len(xs) == 0 || len(ms) == 0 {
		return fmt.Errorf("%w: empty transform or mesh path", ErrObjectNotFound)
	}

	xform, err := r.ar.Lookup(xs...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	}
	if xform.Kind() != archive.KindXform {
		return fmt.Errorf("%w: %s is a %s, not a transform", ErrObjectNotFound, xform.Path(), xform.Kind())
	}
	mesh, err := r.ar.Lookup(append(xs, ms...)...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	}
	if mesh.Kind() != archive.KindPolyMesh {
		return fmt.Errorf("%w: %s is a %s, not a mesh", ErrObjectNotFound, mesh.Path(), mesh.Kind())
	}
	r.xform, r.mesh = xform, mesh

	for _, c := range []struct {
		name string
		dst  **archive.ReadProperty
	}{
		{archive.PropPositions, &r.positions},
		{archive.PropFaceIndices, &r.faceIndices},
		{archive.PropFaceCounts, &r.faceCounts},
	} {
		p, err := mesh.Property(c.name)
		if err != nil {
			return backendError("open mesh", err)
		}
		*c.dst = p
	}
	if p, err := mesh.Property(archive.PropNormals); err == nil && p.DataType() == archive.Float32x3 {
		r.normals = p
	}
	if p, err := xform.Property(archive.PropXform); err == nil && p.DataType() == archive.Float32x16 {
		r.transform = p
	}
	return nil
}

// bindAttributes matches declared attributes to archive channels by name.
// Channels of the wrong data type are treated as missing.
func (r *Reader) bindAttributes(ctx context.Context) {
	r.scalars = make([]*archive.ReadProperty, r.index.NumScalars())
	r.vectors = make([]*archive.ReadProperty, r.index.NumVectors())

	for _, p := range r.mesh.ArbGeomParams() {
		d, slot, ok := r.index.Lookup(p.Name())
		if !ok {
			continue
		}
		want := archive.Float32
		if d.Type == Vector3 {
			want = archive.Float32x3
		}
		if p.DataType() != want {
			r.logger.WarnContext(ctx, "attribute type mismatch, treating as absent",
				"attribute", d.Name,
				"declared", d.Type,
				"stored", p.DataType(),
			)
			continue
		}
		if d.Type == Scalar {
			r.scalars[slot] = p
		} else {
			r.vectors[slot] = p
		}
	}
}

// staged holds one sample while it is being loaded. Goroutines write only
// their own fields.
type staged struct {
	positions   []Vec3
	faceIndices []int32
	faceCounts  []int32

	normals        []Vec3
	normalScope    Scope
	normalsPresent bool

	scalars       [][]float32
	vectors       [][]Vec3
	scalarPresent []bool
	vectorPresent []bool
}

// load reads sample i into the cursor. On failure the cursor is unchanged.
func (r *Reader) load(ctx context.Context, i int) (err error) {
	start := time.Now()
	defer func() {
		r.opts.metricsCollector.RecordRead(time.Since(start), err)
	}()

	st := &staged{
		scalars:       make([][]float32, len(r.scalars)),
		vectors:       make([][]Vec3, len(r.vectors)),
		scalarPresent: make([]bool, len(r.scalars)),
		vectorPresent: make([]bool, len(r.vectors)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.readConcurrency)

	g.Go(func() error {
		v, err := r.positions.ReadVec3s(gctx, i)
		st.positions = v
		return backendError("read positions", err)
	})
	g.Go(func() error {
		v, err := r.faceIndices.ReadInt32s(gctx, i)
		st.faceIndices = v
		return backendError("read face indices", err)
	})
	g.Go(func() error {
		v, err := r.faceCounts.ReadInt32s(gctx, i)
		st.faceCounts = v
		return backendError("read face counts", err)
	})
	if r.normals != nil && r.normals.Present(i) {
		g.Go(func() error {
			v, err := r.normals.ReadVec3s(gctx, i)
			if err != nil {
				return backendError("read normals", err)
			}
			as, err := r.normals.SampleScope(i)
			if err != nil {
				return backendError("read normals", err)
			}
			scope, err := scopeFromArchive(as)
			if err != nil {
				return backendError("read normals", err)
			}
			st.normals, st.normalScope, st.normalsPresent = v, scope, true
			return nil
		})
	}
	for slot, p := range r.scalars {
		if p == nil || !p.Present(i) {
			continue
		}
		g.Go(func() error {
			v, err := p.ReadFloat32s(gctx, i)
			if err != nil {
				return backendError("read "+p.Name(), err)
			}
			st.scalars[slot], st.scalarPresent[slot] = v, true
			return nil
		})
	}
	for slot, p := range r.vectors {
		if p == nil || !p.Present(i) {
			continue
		}
		g.Go(func() error {
			v, err := p.ReadVec3s(gctx, i)
			if err != nil {
				return backendError("read "+p.Name(), err)
			}
			st.vectors[slot], st.vectorPresent[slot] = v, true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.LogSample(ctx, i, 0, 0, err)
		return err
	}
	r.commit(st)
	r.current = i
	r.logger.LogSample(ctx, i, len(st.positions), len(st.faceCounts), nil)
	return nil
}

func (r *Reader) commit(st *staged) {
	s := r.sample
	s.Positions = st.positions
	s.FaceIndices = st.faceIndices
	s.FaceCounts = st.faceCounts

	s.NormalsPresent = st.normalsPresent
	if st.normalsPresent {
		s.Normals, s.NormalScope = st.normals, st.normalScope
	} else {
		s.Normals = nil
	}

	// Absent slots keep the contents of the last sample that had them.
	for slot, ok := range st.scalarPresent {
		if ok {
			s.Scalars[slot] = st.scalars[slot]
		}
		s.ScalarPresent[slot] = ok
	}
	for slot, ok := range st.vectorPresent {
		if ok {
			s.Vectors[slot] = st.vectors[slot]
		}
		s.VectorPresent[slot] = ok
	}
}

func (r *Reader) check() error {
	if r == nil || r.ar == nil {
		return ErrNotOpen
	}
	if r.closed {
		return ErrClosed
	}
	return nil
}

// StepForward moves to the next sample. At the last sample it returns a
// *SampleIndexError and the cursor stays put.
func (r *Reader) StepForward(ctx context.Context) error {
	if err := r.check(); err != nil {
		return err
	}
	next := r.current + 1
	if next >= r.count {
		return &SampleIndexError{Index: next, Count: r.count}
	}
	return r.load(ctx, next)
}

// StepBackward moves to the previous sample. At sample 0 it returns a
// *SampleIndexError and the cursor stays put.
func (r *Reader) StepBackward(ctx context.Context) error {
	if err := r.check(); err != nil {
		return err
	}
	prev := r.current - 1
	if prev < 0 {
		return &SampleIndexError{Index: prev, Count: r.count}
	}
	return r.load(ctx, prev)
}

// Seek moves to sample index.
func (r *Reader) Seek(ctx context.Context, index int) error {
	if err := r.check(); err != nil {
		return err
	}
	if index < 0 || index >= r.count {
		return &SampleIndexError{Index: index, Count: r.count}
	}
	return r.load(ctx, index)
}

// Current returns the loaded sample. The sample is owned by the Reader and
// is overwritten by the next move; use Clone to keep it.
func (r *Reader) Current() *GeometrySample { return r.sample }

// Index returns the position of the cursor.
func (r *Reader) Index() int { return r.current }

// NumSamples returns the number of mesh samples.
func (r *Reader) NumSamples() int { return r.count }

// Time returns the time of the current sample in seconds.
func (r *Reader) Time() float64 {
	return r.ar.TimeSampling().SampleTime(r.current)
}

// TimeSampling returns the archive's time sampling.
func (r *Reader) TimeSampling() archive.TimeSampling { return r.ar.TimeSampling() }

// Schema returns the attribute index built from the declarations.
func (r *Reader) Schema() *AttributeIndex { return r.index }

// Diagnostics returns the declarations dropped while building the schema.
func (r *Reader) Diagnostics() []error { return r.diags }

// TransformPath returns the resolved transform path.
func (r *Reader) TransformPath() string { return r.xform.Path() }

// MeshPath returns the resolved mesh path.
func (r *Reader) MeshPath() string { return r.mesh.Path() }

// ScalarAttribute returns the values of the declared scalar attribute name
// for the current sample.
func (r *Reader) ScalarAttribute(name string) ([]float32, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	slot, ok := r.index.ScalarSlot(name)
	if !ok {
		return nil, fmt.Errorf("%w: scalar %q", ErrUndeclaredAttribute, name)
	}
	return r.sample.Scalars[slot], nil
}

// VectorAttribute returns the values of the declared vector attribute name
// for the current sample.
func (r *Reader) VectorAttribute(name string) ([]Vec3, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	slot, ok := r.index.VectorSlot(name)
	if !ok {
		return nil, fmt.Errorf("%w: vector %q", ErrUndeclaredAttribute, name)
	}
	return r.sample.Vectors[slot], nil
}

// AttributePresent reports whether the declared attribute name was loaded
// for the current sample.
func (r *Reader) AttributePresent(name string) (bool, error) {
	if err := r.check(); err != nil {
		return false, err
	}
	if slot, ok := r.index.ScalarSlot(name); ok {
		return r.sample.ScalarPresent[slot], nil
	}
	if slot, ok := r.index.VectorSlot(name); ok {
		return r.sample.VectorPresent[slot], nil
	}
	return false, fmt.Errorf("%w: %q", ErrUndeclaredAttribute, name)
}

// NumTransformSamples returns the number of transform samples.
func (r *Reader) NumTransformSamples() int {
	if r.transform == nil {
		return 0
	}
	return r.transform.NumSamples()
}

// TransformMatrix reads transform sample i.
func (r *Reader) TransformMatrix(ctx context.Context, i int) (Mat4, error) {
	if err := r.check(); err != nil {
		return Mat4{}, err
	}
	n := r.NumTransformSamples()
	if i < 0 || i >= n {
		return Mat4{}, &SampleIndexError{Index: i, Count: n}
	}
	ms, err := r.transform.ReadMat4s(ctx, i)
	if err != nil {
		return Mat4{}, backendError("read transform", err)
	}
	if len(ms) != 1 {
		return Mat4{}, backendError("read transform", fmt.Errorf("%w: sample %d holds %d matrices", archive.ErrCorrupt, i, len(ms)))
	}
	return ms[0], nil
}

// Close releases the archive. The Reader cannot be used afterwards.
func (r *Reader) Close() error {
	if r == nil || r.ar == nil || r.closed {
		return nil
	}
	r.closed = true
	err := r.ar.Close()
	if err != nil {
		err = backendError("close", err)
	}
	r.logger.LogClose(context.Background(), r.path, 1, []int{r.count}, err)
	return err
}
