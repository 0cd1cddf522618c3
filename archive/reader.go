package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hupe1980/meshcache/blobstore"
	"github.com/hupe1980/meshcache/cache"
	"github.com/hupe1980/meshcache/internal/conv"
)

// Reader gives random access to a committed archive.
//
// Object and property lookups are safe for concurrent use. Sample reads are
// safe for concurrent use as long as the configured ChunkCache is.
type Reader struct {
	store    blobstore.BlobStore
	opts     options
	m        *manifest
	codec    string
	data     blobstore.Blob
	cache    cache.ChunkCache
	cacheID  uint64

	root   *ReadObject
	byPath map[string]*ReadObject
	closed bool
}

// Open opens the archive committed in store.
// It returns ErrNotFound if store holds no committed archive.
func Open(ctx context.Context, store blobstore.BlobStore, opts ...Option) (*Reader, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	m, codecName, err := loadManifest(ctx, store)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		store:    store,
		opts:     o,
		m:        m,
		codec:    codecName,
		cache:    o.cache,
		cacheID:  cache.NewArchiveID(),
	}
	if r.cache == nil && o.cacheBytes > 0 {
		r.cache = cache.NewLRU(o.cacheBytes, o.rc)
	}

	if m.DataSize > 0 {
		data, err := store.Open(ctx, m.DataFile)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				return nil, corruptf("manifest names missing data file %s", m.DataFile)
			}
			return nil, err
		}
		if data.Size() < m.DataSize {
			_ = data.Close()
			return nil, corruptf("data file %s has %d bytes, manifest says %d", m.DataFile, data.Size(), m.DataSize)
		}
		r.data = data
	}

	if err := r.buildTree(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) buildTree() error {
	r.root = &ReadObject{r: r, path: "/"}
	r.byPath = map[string]*ReadObject{"/": r.root}

	for _, om := range r.m.Objects {
		p := path.Clean(om.Path)
		if p == "/" || !strings.HasPrefix(p, "/") {
			return corruptf("invalid object path %q", om.Path)
		}
		parent, ok := r.byPath[path.Dir(p)]
		if !ok {
			return corruptf("object %s listed before its parent", p)
		}
		if _, dup := r.byPath[p]; dup {
			return corruptf("duplicate object %s", p)
		}
		obj := &ReadObject{r: r, path: p, name: path.Base(p), kind: om.Kind}
		for i := range om.Properties {
			prop, err := newReadProperty(r, obj, &om.Properties[i])
			if err != nil {
				return err
			}
			obj.props = append(obj.props, prop)
		}
		parent.children = append(parent.children, obj)
		r.byPath[p] = obj
	}
	return nil
}

// Close releases the data blob and cached chunks.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.cache != nil {
		r.cache.Invalidate(r.cacheID)
	}
	if r.data != nil {
		return r.data.Close()
	}
	return nil
}

// TimeSampling returns the archive's time sampling.
func (r *Reader) TimeSampling() TimeSampling { return r.m.TimeSampling }

// Version returns the committed manifest number.
func (r *Reader) Version() uint64 { return r.m.Number }

// Codec returns the name of the codec the manifest was written with.
func (r *Reader) Codec() string { return r.codec }

// Application returns the writing application recorded in the manifest.
func (r *Reader) Application() string { return r.m.Application }

// Root returns the unnamed top object.
func (r *Reader) Root() *ReadObject { return r.root }

// ObjectCount returns the number of objects below the root.
func (r *Reader) ObjectCount() int { return len(r.byPath) - 1 }

// Objects returns all objects in depth-first order.
func (r *Reader) Objects() []*ReadObject {
	var out []*ReadObject
	var walk func(o *ReadObject)
	walk = func(o *ReadObject) {
		for _, c := range o.children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(r.root)
	return out
}

// Lookup finds an object by path segments. Segments may themselves contain
// slashes, so Lookup("xform", "mesh") and Lookup("/xform/mesh") are equal.
func (r *Reader) Lookup(segments ...string) (*ReadObject, error) {
	p := path.Clean("/" + path.Join(segments...))
	obj, ok := r.byPath[p]
	if !ok {
		return nil, fmt.Errorf("%w: object %s", ErrNotFound, p)
	}
	return obj, nil
}

// CacheStats returns decoded-chunk cache hits and misses.
func (r *Reader) CacheStats() (hits, misses int64) {
	if r.cache == nil {
		return 0, 0
	}
	return r.cache.Stats()
}

// readChunk returns the raw payload of the chunk at [off, off+size).
// Payloads come from the cache when possible and must not be modified.
func (r *Reader) readChunk(ctx context.Context, off, size int64, want DataType) ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.data == nil || off < 0 || size < chunkHeaderSize || off+size > r.m.DataSize {
		return nil, corruptf("chunk ref [%d,+%d) outside data file", off, size)
	}

	key := cache.Key{Archive: r.cacheID, Offset: off}
	if r.cache != nil {
		if raw, ok := r.cache.Get(key); ok {
			return raw, nil
		}
	}

	buf := make([]byte, size)
	n, err := r.data.ReadAt(ctx, buf, off)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == size) {
		return nil, fmt.Errorf("archive: read chunk at %d: %w", off, err)
	}

	h, raw, err := decodeChunk(buf, off)
	if err != nil {
		return nil, err
	}
	if h.dtype != want {
		return nil, corruptf("chunk at %d holds %s, want %s", off, h.dtype, want)
	}
	if r.cache != nil {
		r.cache.Set(key, raw)
	}
	return raw, nil
}

// ReadObject is a node of a committed archive.
type ReadObject struct {
	r        *Reader
	path     string
	name     string
	kind     Kind
	children []*ReadObject
	props    []*ReadProperty
}

// Name returns the object's name.
func (o *ReadObject) Name() string { return o.name }

// Path returns the full path.
func (o *ReadObject) Path() string { return o.path }

// Kind returns the object's schema kind.
func (o *ReadObject) Kind() Kind { return o.kind }

// Children returns the direct children in creation order.
func (o *ReadObject) Children() []*ReadObject { return o.children }

// Child returns the direct child named name.
func (o *ReadObject) Child(name string) (*ReadObject, error) {
	for _, c := range o.children {
		if c.name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: object %s", ErrNotFound, path.Join(o.path, name))
}

// Properties returns all properties of the object, including arbGeomParams.
func (o *ReadObject) Properties() []*ReadProperty { return o.props }

// Property returns the schema property name (outside any group).
func (o *ReadObject) Property(name string) (*ReadProperty, error) {
	return o.grouped("", name)
}

// ArbGeomParam returns the custom attribute name.
func (o *ReadObject) ArbGeomParam(name string) (*ReadProperty, error) {
	return o.grouped(GroupArbGeomParams, name)
}

// ArbGeomParams returns the custom attributes, sorted by name.
func (o *ReadObject) ArbGeomParams() []*ReadProperty {
	var out []*ReadProperty
	for _, p := range o.props {
		if p.meta.Group == GroupArbGeomParams {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].meta.Name < out[j].meta.Name })
	return out
}

func (o *ReadObject) grouped(group, name string) (*ReadProperty, error) {
	for _, p := range o.props {
		if p.meta.Group == group && p.meta.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: property %s of %s", ErrNotFound, name, o.path)
}

// ReadProperty is a typed, time-sampled property of a committed archive.
type ReadProperty struct {
	r       *Reader
	obj     *ReadObject
	meta    *propertyMeta
	present *roaring.Bitmap
}

func newReadProperty(r *Reader, obj *ReadObject, pm *propertyMeta) (*ReadProperty, error) {
	bm := roaring.New()
	if len(pm.Present) > 0 {
		if err := bm.UnmarshalBinary(pm.Present); err != nil {
			return nil, corruptf("presence bitmap of %s/%s: %v", obj.path, pm.Name, err)
		}
	}
	card, err := conv.Uint64ToInt(bm.GetCardinality())
	if err != nil {
		return nil, corruptf("%s/%s: %v", obj.path, pm.Name, err)
	}
	if card != len(pm.Refs) {
		return nil, corruptf("%s/%s: %d present samples but %d refs", obj.path, pm.Name, bm.GetCardinality(), len(pm.Refs))
	}
	if !bm.IsEmpty() && int(bm.Maximum()) >= pm.NumSamples {
		return nil, corruptf("%s/%s: sample %d beyond count %d", obj.path, pm.Name, bm.Maximum(), pm.NumSamples)
	}
	if pm.DataType.Width() == 0 {
		return nil, corruptf("%s/%s: unknown data type %d", obj.path, pm.Name, pm.DataType)
	}
	return &ReadProperty{r: r, obj: obj, meta: pm, present: bm}, nil
}

// Name returns the property name.
func (p *ReadProperty) Name() string { return p.meta.Name }

// Group returns the property group ("" or GroupArbGeomParams).
func (p *ReadProperty) Group() string { return p.meta.Group }

// DataType returns the element type.
func (p *ReadProperty) DataType() DataType { return p.meta.DataType }

// Interpretation returns the interpretation tag.
func (p *ReadProperty) Interpretation() Interpretation { return p.meta.Interpretation }

// Scope returns the topological scope.
func (p *ReadProperty) Scope() Scope { return p.meta.Scope }

// SampleScope returns the scope of present sample i, which differs from
// Scope when the sample was written with its own.
func (p *ReadProperty) SampleScope(i int) (Scope, error) {
	ref, err := p.ref(i)
	if err != nil {
		return 0, err
	}
	if ref.Scope == nil {
		return p.meta.Scope, nil
	}
	if !ref.Scope.Valid() {
		return 0, corruptf("%s sample %d: invalid scope %d", p.meta.Name, i, uint8(*ref.Scope))
	}
	return *ref.Scope, nil
}

// NumSamples returns the number of sample indices, present or not.
func (p *ReadProperty) NumSamples() int { return p.meta.NumSamples }

// NumPresent returns the number of samples that carry data.
func (p *ReadProperty) NumPresent() int { return len(p.meta.Refs) }

// Present reports whether sample i carries data.
func (p *ReadProperty) Present(i int) bool {
	return i >= 0 && i < p.meta.NumSamples && p.present.Contains(uint32(i))
}

func (p *ReadProperty) ref(i int) (sampleRef, error) {
	if i < 0 || i >= p.meta.NumSamples {
		return sampleRef{}, fmt.Errorf("%w: %s sample %d of %d", ErrSampleRange, p.meta.Name, i, p.meta.NumSamples)
	}
	if !p.present.Contains(uint32(i)) {
		return sampleRef{}, fmt.Errorf("%w: %s sample %d", ErrAbsent, p.meta.Name, i)
	}
	// Rank counts present samples <= i, so the dense ref slot is Rank-1.
	return p.meta.Refs[p.present.Rank(uint32(i))-1], nil
}

func (p *ReadProperty) raw(ctx context.Context, i int, dt DataType) ([]byte, []int32, error) {
	if p.meta.DataType != dt {
		return nil, nil, fmt.Errorf("%w: property %s is %s, read as %s", ErrTypeMismatch, p.meta.Name, p.meta.DataType, dt)
	}
	ref, err := p.ref(i)
	if err != nil {
		return nil, nil, err
	}
	raw, err := p.r.readChunk(ctx, ref.Offset, ref.Size, dt)
	if err != nil {
		return nil, nil, err
	}
	if !ref.indexed() {
		return raw, nil, nil
	}
	idxRaw, err := p.r.readChunk(ctx, ref.IdxOffset, ref.IdxSize, Int32)
	if err != nil {
		return nil, nil, err
	}
	idx := decodeInt32s(idxRaw)
	n := len(raw) / (dt.Width() * 4)
	if err := validIndices(idx, n); err != nil {
		return nil, nil, corruptf("%s sample %d: %v", p.meta.Name, i, err)
	}
	return raw, idx, nil
}

// ReadFloat32s reads sample i of a Float32 property. Indexed samples are
// expanded.
func (p *ReadProperty) ReadFloat32s(ctx context.Context, i int) ([]float32, error) {
	raw, idx, err := p.raw(ctx, i, Float32)
	if err != nil {
		return nil, err
	}
	return expand(decodeFloat32s(raw), idx), nil
}

// ReadInt32s reads sample i of an Int32 property.
func (p *ReadProperty) ReadInt32s(ctx context.Context, i int) ([]int32, error) {
	raw, _, err := p.raw(ctx, i, Int32)
	if err != nil {
		return nil, err
	}
	return decodeInt32s(raw), nil
}

// ReadVec3s reads sample i of a Float32x3 property. Indexed samples are
// expanded.
func (p *ReadProperty) ReadVec3s(ctx context.Context, i int) ([]mgl32.Vec3, error) {
	raw, idx, err := p.raw(ctx, i, Float32x3)
	if err != nil {
		return nil, err
	}
	return expand(decodeVec3s(raw), idx), nil
}

// ReadMat4s reads sample i of a Float32x16 property.
func (p *ReadProperty) ReadMat4s(ctx context.Context, i int) ([]mgl32.Mat4, error) {
	raw, _, err := p.raw(ctx, i, Float32x16)
	if err != nil {
		return nil, err
	}
	return decodeMat4s(raw), nil
}

func expand[T any](values []T, idx []int32) []T {
	if idx == nil {
		return values
	}
	out := make([]T, len(idx))
	for i, ix := range idx {
		out[i] = values[ix]
	}
	return out
}

// PropertySummary describes one property for listings.
type PropertySummary struct {
	Name           string
	Group          string
	DataType       DataType
	Interpretation Interpretation
	Scope          Scope
	NumSamples     int
	NumPresent     int
}

// ObjectSummary describes one object for listings.
type ObjectSummary struct {
	Path       string
	Kind       Kind
	Properties []PropertySummary
}

// Summary lists every object and its properties in depth-first order.
func (r *Reader) Summary() []ObjectSummary {
	objs := r.Objects()
	out := make([]ObjectSummary, 0, len(objs))
	for _, o := range objs {
		s := ObjectSummary{Path: o.path, Kind: o.kind}
		for _, p := range o.props {
			s.Properties = append(s.Properties, PropertySummary{
				Name:           p.meta.Name,
				Group:          p.meta.Group,
				DataType:       p.meta.DataType,
				Interpretation: p.meta.Interpretation,
				Scope:          p.meta.Scope,
				NumSamples:     p.meta.NumSamples,
				NumPresent:     len(p.meta.Refs),
			})
		}
		out = append(out, s)
	}
	return out
}
