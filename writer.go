package meshcache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/meshcache/archive"
)

// ObjectSpec describes one mesh object of a new archive.
type ObjectSpec struct {
	// TransformPath is the path of the transform, e.g. "xform" or "/rig/body".
	TransformPath string
	// MeshPath is the path of the mesh below the transform.
	MeshPath string
	// Attributes declares the custom attributes of the mesh. It cannot grow
	// after creation.
	Attributes []AttributeDescriptor
}

// Writer appends samples to one or more mesh objects of a new archive.
//
// Nothing is visible to readers until Close. A Writer is owned by one
// goroutine.
type Writer struct {
	path   string
	opts   options
	logger *Logger

	aw      *archive.Writer
	nodes   map[string]*archive.Object
	objects []*meshObject
	closed  bool
}

// channel is one custom attribute channel together with the declaration
// it was created from.
type channel struct {
	prop  *archive.Property
	name  string
	scope Scope
}

// vectorRoute locates the channel table entry of a vector slot.
type vectorRoute struct {
	kind  VectorKind
	table int
}

// meshObject owns the archive channels of one transform and mesh pair.
type meshObject struct {
	xform *archive.Object
	mesh  *archive.Object
	index *AttributeIndex
	diags []error

	positions   *archive.Property
	faceIndices *archive.Property
	faceCounts  *archive.Property
	normals     *archive.Property
	transform   *archive.Property

	// scalars is indexed by scalar slot. vectors and colors are disjoint
	// tables; route maps each vector slot to one of them.
	scalars []channel
	vectors []channel
	colors  []channel
	route   []vectorRoute

	samples    int
	transforms int
}

// CreateSingle creates an archive at path holding one mesh object.
func CreateSingle(ctx context.Context, path, transformPath, meshPath string, decls []AttributeDescriptor, optFns ...Option) (*Writer, error) {
	return Create(ctx, path, []ObjectSpec{{
		TransformPath: transformPath,
		MeshPath:      meshPath,
		Attributes:    decls,
	}}, optFns...)
}

// Create creates an archive at path holding the mesh objects in specs.
// Mesh index i in the append methods refers to specs[i].
//
// All channels are created here. Malformed attribute declarations are
// dropped and logged; see Schema and Diagnostics.
func Create(ctx context.Context, path string, specs []ObjectSpec, optFns ...Option) (*Writer, error) {
	start := time.Now()
	opts := applyOptions(optFns)
	logger := opts.logger.WithArchive(path)

	w, err := createWriter(ctx, path, specs, opts, logger)
	logger.LogOpen(ctx, "write", len(specs), err)
	opts.metricsCollector.RecordOpen("write", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func createWriter(ctx context.Context, path string, specs []ObjectSpec, opts options, logger *Logger) (*Writer, error) {
	aw, err := archive.Create(ctx, opts.resolveStore(path), opts.archiveOptions()...)
	if err != nil {
		return nil, &OpenError{Path: path, cause: backendError("create archive", err)}
	}
	w := &Writer{
		path:   path,
		opts:   opts,
		logger: logger,
		aw:     aw,
		nodes:  map[string]*archive.Object{"/": aw.Root()},
	}
	for i, spec := range specs {
		obj, err := w.createObject(ctx, spec)
		if err != nil {
			_ = aw.Abort(ctx)
			return nil, &OpenError{Path: path, Object: fmt.Sprintf("#%d %s", i, joinPath(spec.TransformPath, spec.MeshPath)), cause: err}
		}
		w.objects = append(w.objects, obj)
	}
	return w, nil
}

// node returns the object at segs, creating missing transforms on the way.
func (w *Writer) node(segs []string) (*archive.Object, error) {
	parent := w.nodes["/"]
	for i := range segs {
		p := "/" + strings.Join(segs[:i+1], "/")
		if obj, ok := w.nodes[p]; ok {
			parent = obj
			continue
		}
		obj, err := w.aw.CreateObject(parent, segs[i], archive.KindXform)
		if err != nil {
			return nil, backendError("create object", err)
		}
		w.nodes[p] = obj
		parent = obj
	}
	return parent, nil
}

func (w *Writer) createObject(ctx context.Context, spec ObjectSpec) (*meshObject, error) {
	xs := splitPath(spec.TransformPath)
	ms := splitPath(spec.MeshPath)
	if len(xs) == 0 || len(ms) == 0 {
		return nil, fmt.Errorf("%w: empty transform or mesh path", ErrObjectNotFound)
	}
	xform, err := w.node(xs)
	if err != nil {
		return nil, err
	}
	if _, taken := w.transforms()[xform]; taken {
		return nil, fmt.Errorf("%w: transform %s already holds a mesh object", archive.ErrPropertyExists, xform.Path())
	}
	parent := xform
	if len(ms) > 1 {
		if parent, err = w.node(append(xs, ms[:len(ms)-1]...)); err != nil {
			return nil, err
		}
	}
	mesh, err := w.aw.CreateObject(parent, ms[len(ms)-1], archive.KindPolyMesh)
	if err != nil {
		return nil, backendError("create object", err)
	}
	w.nodes[mesh.Path()] = mesh

	o := &meshObject{xform: xform, mesh: mesh}
	if err := o.createCore(); err != nil {
		return nil, err
	}

	o.index, o.diags = BuildIndex(spec.Attributes)
	olog := w.logger.WithObject(mesh.Path())
	for _, d := range o.diags {
		olog.LogSchemaDiagnostic(ctx, d)
	}
	if err := o.createChannels(); err != nil {
		return nil, err
	}
	return o, nil
}

func (w *Writer) transforms() map[*archive.Object]struct{} {
	out := make(map[*archive.Object]struct{}, len(w.objects))
	for _, o := range w.objects {
		out[o.xform] = struct{}{}
	}
	return out
}

func (o *meshObject) createCore() error {
	specs := []struct {
		dst  **archive.Property
		obj  *archive.Object
		spec archive.PropertySpec
	}{
		{&o.positions, o.mesh, archive.PropertySpec{Name: archive.PropPositions, DataType: archive.Float32x3, Interpretation: archive.InterpretPoint, Scope: archive.ScopePoint}},
		{&o.faceIndices, o.mesh, archive.PropertySpec{Name: archive.PropFaceIndices, DataType: archive.Int32, Scope: archive.ScopeVertex}},
		{&o.faceCounts, o.mesh, archive.PropertySpec{Name: archive.PropFaceCounts, DataType: archive.Int32, Scope: archive.ScopeFace}},
		{&o.normals, o.mesh, archive.PropertySpec{Name: archive.PropNormals, DataType: archive.Float32x3, Interpretation: archive.InterpretNormal, Scope: archive.ScopeVertex}},
		{&o.transform, o.xform, archive.PropertySpec{Name: archive.PropXform, DataType: archive.Float32x16, Interpretation: archive.InterpretMatrix, Scope: archive.ScopeConstant}},
	}
	for _, s := range specs {
		p, err := s.obj.CreateProperty(s.spec)
		if err != nil {
			return backendError("create property", err)
		}
		*s.dst = p
	}
	return nil
}

// createChannels opens one archive channel per declared attribute. Colour
// attributes go to the colour table, other vectors to the vector table.
func (o *meshObject) createChannels() error {
	create := func(d AttributeDescriptor, dt archive.DataType, interp archive.Interpretation) (channel, error) {
		scope, err := d.Scope.archive()
		if err != nil {
			return channel{}, err
		}
		p, err := o.mesh.CreateProperty(archive.PropertySpec{
			Name:           d.Name,
			Group:          archive.GroupArbGeomParams,
			DataType:       dt,
			Interpretation: interp,
			Scope:          scope,
		})
		if err != nil {
			return channel{}, backendError("create attribute", err)
		}
		return channel{prop: p, name: d.Name, scope: d.Scope}, nil
	}

	for slot := 0; slot < o.index.NumScalars(); slot++ {
		c, err := create(o.index.Scalar(slot), archive.Float32, archive.InterpretNone)
		if err != nil {
			return err
		}
		o.scalars = append(o.scalars, c)
	}
	for slot := 0; slot < o.index.NumVectors(); slot++ {
		d := o.index.Vector(slot)
		if o.index.VectorKind(slot) == VectorColor {
			c, err := create(d, archive.Float32x3, archive.InterpretColor)
			if err != nil {
				return err
			}
			o.route = append(o.route, vectorRoute{kind: VectorColor, table: len(o.colors)})
			o.colors = append(o.colors, c)
			continue
		}
		c, err := create(d, archive.Float32x3, archive.InterpretVector)
		if err != nil {
			return err
		}
		o.route = append(o.route, vectorRoute{kind: VectorPlain, table: len(o.vectors)})
		o.vectors = append(o.vectors, c)
	}
	return nil
}

// vectorChannel returns the channel of vector slot.
func (o *meshObject) vectorChannel(slot int) channel {
	r := o.route[slot]
	if r.kind == VectorColor {
		return o.colors[r.table]
	}
	return o.vectors[r.table]
}

// object validates meshIndex against an open writer.
func (w *Writer) object(ctx context.Context, meshIndex int) (*meshObject, error) {
	if w == nil || w.aw == nil {
		return nil, ErrNotOpen
	}
	if w.closed {
		w.logger.ErrorContext(ctx, "archive not open", "path", w.path)
		return nil, ErrNotOpen
	}
	if meshIndex < 0 || meshIndex >= len(w.objects) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidMeshIndex, meshIndex, len(w.objects))
	}
	return w.objects[meshIndex], nil
}

// AddSample appends a geometry-only sample. Normals and custom attributes
// are recorded as absent for this sample.
func (w *Writer) AddSample(ctx context.Context, meshIndex int, positions []Vec3, faceIndices, faceCounts []int32) error {
	return w.addSample(ctx, meshIndex, &GeometrySample{
		Positions:   positions,
		FaceIndices: faceIndices,
		FaceCounts:  faceCounts,
	}, false)
}

// AddFullSample appends geometry, normals and custom attributes.
//
// s.Scalars[i] is written to scalar slot i and s.Vectors[i] to vector slot i
// of the object's schema. Slots beyond the supplied arrays, or marked false
// in ScalarPresent/VectorPresent, are recorded as absent. Normals are
// written when NormalsPresent is set or Normals is non-empty.
//
// The sample's shape is checked before anything is written.
func (w *Writer) AddFullSample(ctx context.Context, meshIndex int, s *GeometrySample) error {
	if s == nil {
		return fmt.Errorf("%w: nil sample", ErrInvalidSample)
	}
	return w.addSample(ctx, meshIndex, s, true)
}

func (w *Writer) addSample(ctx context.Context, meshIndex int, s *GeometrySample, full bool) (err error) {
	start := time.Now()
	o, err := w.object(ctx, meshIndex)
	if err != nil {
		return err
	}
	sample := o.samples
	defer func() {
		w.logger.LogAppend(ctx, meshIndex, sample, err)
		w.opts.metricsCollector.RecordAppend(full, time.Since(start), err)
	}()

	writeNormals := full && (s.NormalsPresent || len(s.Normals) > 0)
	var normalScope archive.Scope
	if writeNormals {
		if normalScope, err = s.NormalScope.archive(); err != nil {
			return fmt.Errorf("normals: %w", err)
		}
	}
	if len(s.Scalars) > len(o.scalars) {
		return fmt.Errorf("%w: %d scalar arrays for %d declared scalars", ErrInvalidSample, len(s.Scalars), len(o.scalars))
	}
	if len(s.Vectors) > len(o.route) {
		return fmt.Errorf("%w: %d vector arrays for %d declared vectors", ErrInvalidSample, len(s.Vectors), len(o.route))
	}

	if err := o.positions.AppendVec3s(ctx, s.Positions); err != nil {
		return backendError("append positions", err)
	}
	if err := o.faceIndices.AppendInt32s(ctx, s.FaceIndices); err != nil {
		return backendError("append face indices", err)
	}
	if err := o.faceCounts.AppendInt32s(ctx, s.FaceCounts); err != nil {
		return backendError("append face counts", err)
	}

	if writeNormals {
		if err := o.normals.AppendVec3sScoped(ctx, s.Normals, normalScope); err != nil {
			return backendError("append normals", err)
		}
	} else if err := o.normals.Skip(); err != nil {
		return backendError("append normals", err)
	}

	for slot, c := range o.scalars {
		if slot < len(s.Scalars) && s.scalarPresent(slot) {
			err = c.prop.AppendFloat32s(ctx, s.Scalars[slot])
		} else {
			err = c.prop.Skip()
		}
		if err != nil {
			return backendError("append "+c.name, err)
		}
	}
	for slot := range o.route {
		c := o.vectorChannel(slot)
		if slot < len(s.Vectors) && s.vectorPresent(slot) {
			err = c.prop.AppendVec3s(ctx, s.Vectors[slot])
		} else {
			err = c.prop.Skip()
		}
		if err != nil {
			return backendError("append "+c.name, err)
		}
	}

	o.samples++
	return nil
}

// AddTransformSample appends a transform composed from translate, scale and
// Euler rotations in degrees, applied as translate, scale, rotateX, rotateY,
// rotateZ. Transform samples are counted independently of mesh samples.
func (w *Writer) AddTransformSample(ctx context.Context, meshIndex int, translate, scale, rotateDeg Vec3) error {
	return w.AddTransformMatrix(ctx, meshIndex, EulerTransform(translate, scale, rotateDeg))
}

// AddTransformSampleAxisAngle appends a transform composed from translate,
// scale and a rotation of angleDeg degrees about axis.
func (w *Writer) AddTransformSampleAxisAngle(ctx context.Context, meshIndex int, translate, scale, axis Vec3, angleDeg float32) error {
	return w.AddTransformMatrix(ctx, meshIndex, AxisAngleTransform(translate, scale, axis, angleDeg))
}

// AddTransformMatrix appends a composed transform matrix.
func (w *Writer) AddTransformMatrix(ctx context.Context, meshIndex int, m Mat4) (err error) {
	start := time.Now()
	o, err := w.object(ctx, meshIndex)
	if err != nil {
		return err
	}
	defer func() {
		w.opts.metricsCollector.RecordTransform(time.Since(start), err)
	}()
	if err := o.transform.AppendMat4(ctx, m); err != nil {
		return backendError("append transform", err)
	}
	o.transforms++
	return nil
}

// NumObjects returns the number of mesh objects.
func (w *Writer) NumObjects() int { return len(w.objects) }

// NumSamples returns the number of mesh samples appended to meshIndex.
func (w *Writer) NumSamples(meshIndex int) int {
	if meshIndex < 0 || meshIndex >= len(w.objects) {
		return 0
	}
	return w.objects[meshIndex].samples
}

// NumTransformSamples returns the number of transform samples appended to meshIndex.
func (w *Writer) NumTransformSamples(meshIndex int) int {
	if meshIndex < 0 || meshIndex >= len(w.objects) {
		return 0
	}
	return w.objects[meshIndex].transforms
}

// Schema returns the attribute index of meshIndex.
func (w *Writer) Schema(meshIndex int) (*AttributeIndex, error) {
	if meshIndex < 0 || meshIndex >= len(w.objects) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidMeshIndex, meshIndex, len(w.objects))
	}
	return w.objects[meshIndex].index, nil
}

// Diagnostics returns the declarations of meshIndex dropped at creation.
func (w *Writer) Diagnostics(meshIndex int) []error {
	if meshIndex < 0 || meshIndex >= len(w.objects) {
		return nil
	}
	return w.objects[meshIndex].diags
}

// Close publishes the archive. Appends after Close return ErrNotOpen.
func (w *Writer) Close(ctx context.Context) error {
	if w == nil || w.aw == nil || w.closed {
		return nil
	}
	w.closed = true

	err := w.aw.Close(ctx)
	if err != nil {
		err = backendError("close", err)
	}
	samples := make([]int, len(w.objects))
	for i, o := range w.objects {
		samples[i] = o.samples
	}
	w.logger.LogClose(ctx, w.path, len(w.objects), samples, err)
	return err
}

// Abort discards everything appended so far. An archive previously
// committed at the same location is left untouched.
func (w *Writer) Abort(ctx context.Context) error {
	if w == nil || w.aw == nil || w.closed {
		return nil
	}
	w.closed = true
	if err := w.aw.Abort(ctx); err != nil {
		return backendError("abort", err)
	}
	w.logger.WarnContext(ctx, "archive aborted", "path", w.path)
	return nil
}
