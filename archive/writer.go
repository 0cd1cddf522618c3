package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hupe1980/meshcache/blobstore"
	"github.com/hupe1980/meshcache/internal/resource"
)

// Writer builds a new archive version in a BlobStore.
//
// A Writer is owned by one goroutine. Nothing is visible to readers until
// Close commits the manifest.
type Writer struct {
	store  blobstore.BlobStore
	opts   options
	number uint64
	prev   string

	blob   blobstore.WritableBlob
	data   io.Writer
	offset int64

	root    *Object
	objects []*Object
	closed  bool
	err     error
}

// Create starts a new archive version in store. If store already holds an
// archive, the new version replaces it on Close.
func Create(ctx context.Context, store blobstore.BlobStore, opts ...Option) (*Writer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	number := uint64(1)
	prev, err := readCurrent(ctx, store)
	switch {
	case err == nil:
		n, ok := parseManifestNumber(prev)
		if !ok {
			return nil, corruptf("CURRENT names %q", prev)
		}
		number = n + 1
	case errors.Is(err, ErrNotFound):
		prev = ""
	default:
		return nil, err
	}

	blob, err := store.Create(ctx, DataName(number))
	if err != nil {
		return nil, fmt.Errorf("archive: create data blob: %w", err)
	}

	w := &Writer{
		store:  store,
		opts:   o,
		number: number,
		prev:   prev,
		blob:   blob,
		data:   resource.NewRateLimitedWriter(ctx, blob, o.rc),
	}
	w.root = &Object{w: w, path: "/", name: ""}
	return w, nil
}

// Root returns the unnamed top object.
func (w *Writer) Root() *Object { return w.root }

// TimeSampling returns the archive's time sampling.
func (w *Writer) TimeSampling() TimeSampling { return w.opts.timeSampling }

// CreateObject adds a child named name under parent (nil means root).
func (w *Writer) CreateObject(parent *Object, name string, kind Kind) (*Object, error) {
	if parent == nil {
		parent = w.root
	}
	return parent.CreateChild(name, kind)
}

// NumObjects returns the number of objects created so far.
func (w *Writer) NumObjects() int { return len(w.objects) }

func (w *Writer) writeChunk(dtype DataType, count int, raw []byte) (int64, int64, error) {
	if w.closed {
		return 0, 0, ErrClosed
	}
	if w.err != nil {
		return 0, 0, w.err
	}
	chunk, err := encodeChunk(dtype, count, raw, w.opts.compression)
	if err != nil {
		return 0, 0, err
	}
	if _, err := w.data.Write(chunk); err != nil {
		// The data stream is now in an unknown state.
		w.err = fmt.Errorf("archive: write chunk: %w", err)
		return 0, 0, w.err
	}
	off := w.offset
	w.offset += int64(len(chunk))
	return off, int64(len(chunk)), nil
}

// Close flushes the chunk stream, writes the manifest and swaps CURRENT.
// The previous version's blobs are removed after a successful commit.
func (w *Writer) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.err != nil {
		if err := w.discardData(ctx); err != nil {
			w.opts.logger.Warn("discard data blob failed", "blob", DataName(w.number), "error", err)
		}
		return w.err
	}
	if err := w.blob.Close(); err != nil {
		return fmt.Errorf("archive: close data blob: %w", err)
	}

	m := &manifest{
		Version:      FormatVersion,
		Number:       w.number,
		CreatedAt:    time.Now().UTC(),
		Application:  w.opts.application,
		TimeSampling: w.opts.timeSampling,
		DataFile:     DataName(w.number),
		DataSize:     w.offset,
	}
	for _, obj := range w.objects {
		om := objectMeta{Path: obj.path, Kind: obj.kind}
		for _, p := range obj.props {
			pm, err := p.meta()
			if err != nil {
				return err
			}
			om.Properties = append(om.Properties, pm)
		}
		m.Objects = append(m.Objects, om)
	}

	b, err := encodeManifest(m, w.opts.codec)
	if err != nil {
		return err
	}
	name := ManifestName(w.number)
	if err := w.store.Put(ctx, name, b); err != nil {
		return fmt.Errorf("archive: write %s: %w", name, err)
	}
	if err := w.store.Put(ctx, CurrentFileName, []byte(name)); err != nil {
		return fmt.Errorf("archive: commit %s: %w", name, err)
	}

	if w.prev != "" {
		w.removeVersion(ctx, w.prev)
	}
	return nil
}

// Abort discards the version being written. The committed version, if any,
// is left untouched.
func (w *Writer) Abort(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.discardData(ctx)
}

// discardData drops the data blob of the version being written without
// publishing it where the store supports that.
func (w *Writer) discardData(ctx context.Context) error {
	if a, ok := w.blob.(blobstore.Aborter); ok {
		if err := a.Abort(); err == nil {
			return nil
		}
	}
	_ = w.blob.Close()
	return w.store.Delete(ctx, DataName(w.number))
}

func (w *Writer) removeVersion(ctx context.Context, manifestName string) {
	n, ok := parseManifestNumber(manifestName)
	if !ok {
		return
	}
	for _, name := range []string{DataName(n), manifestName} {
		if err := w.store.Delete(ctx, name); err != nil {
			w.opts.logger.Warn("failed to remove obsolete blob", "blob", name, "error", err)
		}
	}
}

// Object is a node of the archive hierarchy being written.
type Object struct {
	w        *Writer
	path     string
	name     string
	kind     Kind
	children []*Object
	props    []*Property
}

// Name returns the object's name.
func (o *Object) Name() string { return o.name }

// Path returns the full path, e.g. "/xform/mesh".
func (o *Object) Path() string { return o.path }

// Kind returns the object's schema kind.
func (o *Object) Kind() Kind { return o.kind }

// CreateChild adds a child object.
func (o *Object) CreateChild(name string, kind Kind) (*Object, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("archive: invalid object name %q", name)
	}
	for _, c := range o.children {
		if c.name == name {
			return nil, fmt.Errorf("%w: object %s", ErrPropertyExists, path.Join(o.path, name))
		}
	}
	child := &Object{w: o.w, path: path.Join(o.path, name), name: name, kind: kind}
	o.children = append(o.children, child)
	o.w.objects = append(o.w.objects, child)
	return child, nil
}

// PropertySpec describes a property to create.
type PropertySpec struct {
	Name           string
	Group          string
	DataType       DataType
	Interpretation Interpretation
	Scope          Scope
}

// CreateProperty adds a property to the object.
func (o *Object) CreateProperty(spec PropertySpec) (*Property, error) {
	if spec.Name == "" {
		return nil, errors.New("archive: empty property name")
	}
	if spec.DataType.Width() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTypeMismatch, spec.DataType)
	}
	if !spec.Scope.Valid() {
		return nil, fmt.Errorf("archive: invalid scope %s", spec.Scope)
	}
	for _, p := range o.props {
		if p.spec.Name == spec.Name && p.spec.Group == spec.Group {
			return nil, fmt.Errorf("%w: property %s/%s", ErrPropertyExists, o.path, spec.Name)
		}
	}
	p := &Property{obj: o, spec: spec, present: roaring.New()}
	o.props = append(o.props, p)
	return p, nil
}

// Property is a typed, time-sampled property being written.
//
// Each Append* or Skip call adds exactly one sample index.
type Property struct {
	obj     *Object
	spec    PropertySpec
	present *roaring.Bitmap
	refs    []sampleRef
	n       int
}

// Name returns the property name.
func (p *Property) Name() string { return p.spec.Name }

// Spec returns the property's description.
func (p *Property) Spec() PropertySpec { return p.spec }

// NumSamples returns the number of sample indices written, present or not.
func (p *Property) NumSamples() int { return p.n }


func (p *Property) check(dt DataType) error {
	if p.spec.DataType != dt {
		return fmt.Errorf("%w: property %s is %s, got %s", ErrTypeMismatch, p.spec.Name, p.spec.DataType, dt)
	}
	return nil
}

func (p *Property) append(dt DataType, count int, raw []byte, idx []int32) error {
	if err := p.check(dt); err != nil {
		return err
	}
	off, size, err := p.obj.w.writeChunk(dt, count, raw)
	if err != nil {
		return err
	}
	ref := sampleRef{Offset: off, Size: size}
	if idx != nil {
		ioff, isize, err := p.obj.w.writeChunk(Int32, len(idx), encodeInt32s(idx))
		if err != nil {
			return err
		}
		ref.IdxOffset, ref.IdxSize = ioff, isize
	}
	p.present.Add(uint32(p.n))
	p.refs = append(p.refs, ref)
	p.n++
	return nil
}

// Skip records the next sample index as absent.
func (p *Property) Skip() error {
	if p.obj.w.closed {
		return ErrClosed
	}
	p.n++
	return nil
}

// AppendFloat32s writes one Float32 sample.
func (p *Property) AppendFloat32s(_ context.Context, v []float32) error {
	return p.append(Float32, len(v), encodeFloat32s(v), nil)
}

// AppendInt32s writes one Int32 sample.
func (p *Property) AppendInt32s(_ context.Context, v []int32) error {
	return p.append(Int32, len(v), encodeInt32s(v), nil)
}

// AppendVec3s writes one Float32x3 sample.
func (p *Property) AppendVec3s(_ context.Context, v []mgl32.Vec3) error {
	return p.append(Float32x3, len(v), encodeVec3s(v), nil)
}

// AppendVec3sScoped writes one Float32x3 sample whose values map to scope.
// A scope other than the property's is recorded on the sample itself.
func (p *Property) AppendVec3sScoped(_ context.Context, v []mgl32.Vec3, scope Scope) error {
	if !scope.Valid() {
		return fmt.Errorf("archive: invalid scope %s", scope)
	}
	if err := p.append(Float32x3, len(v), encodeVec3s(v), nil); err != nil {
		return err
	}
	if scope != p.spec.Scope {
		p.refs[len(p.refs)-1].Scope = &scope
	}
	return nil
}

// AppendMat4 writes one Float32x16 sample holding a single matrix.
func (p *Property) AppendMat4(_ context.Context, m mgl32.Mat4) error {
	return p.append(Float32x16, 1, encodeMat4(m), nil)
}

// AppendIndexedFloat32s writes one sample as unique values plus indices.
// Readers see values[indices[i]] for each i.
func (p *Property) AppendIndexedFloat32s(_ context.Context, values []float32, indices []int32) error {
	if err := validIndices(indices, len(values)); err != nil {
		return err
	}
	return p.append(Float32, len(values), encodeFloat32s(values), nonNil(indices))
}

// AppendIndexedVec3s writes one sample as unique vectors plus indices.
func (p *Property) AppendIndexedVec3s(_ context.Context, values []mgl32.Vec3, indices []int32) error {
	if err := validIndices(indices, len(values)); err != nil {
		return err
	}
	return p.append(Float32x3, len(values), encodeVec3s(values), nonNil(indices))
}

func validIndices(indices []int32, n int) error {
	for i, ix := range indices {
		if ix < 0 || int(ix) >= n {
			return fmt.Errorf("archive: index %d at position %d out of range [0,%d)", ix, i, n)
		}
	}
	return nil
}

func nonNil(idx []int32) []int32 {
	if idx == nil {
		return []int32{}
	}
	return idx
}

func (p *Property) meta() (propertyMeta, error) {
	p.present.RunOptimize()
	bm, err := p.present.ToBytes()
	if err != nil {
		return propertyMeta{}, fmt.Errorf("archive: encode presence of %s: %w", p.spec.Name, err)
	}
	return propertyMeta{
		Name:           p.spec.Name,
		Group:          p.spec.Group,
		DataType:       p.spec.DataType,
		Interpretation: p.spec.Interpretation,
		Scope:          p.spec.Scope,
		NumSamples:     p.n,
		Present:        bm,
		Refs:           p.refs,
	}, nil
}
