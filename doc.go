// Package meshcache reads and writes time-sampled polygon mesh archives.
//
// An archive holds a hierarchy of objects. Each mesh lives under a transform
// object and carries positions, face topology, optional normals and a set of
// custom per-point, per-face-vertex or per-face attributes. Every property is
// sampled independently over time; a sample that was not written is absent
// rather than empty.
//
// # Declaring attributes
//
// Callers declare the custom attributes they care about up front:
//
//	decls := []meshcache.AttributeDescriptor{
//		{Name: "noise", Type: meshcache.Scalar, Scope: meshcache.ScopePoint},
//		{Name: "Cd", Type: meshcache.Vector3, Scope: meshcache.ScopePoint},
//	}
//
// BuildIndex assigns each declaration a dense slot within its element type.
// Bad declarations are reported as diagnostics and left out; the rest of the
// schema stays usable. A Vector3 attribute named "Cd" is stored as a color.
//
// # Writing
//
//	w, err := meshcache.CreateSingle(ctx, "./caches/shot010", "/shot/grid", "mesh", decls)
//	if err != nil {
//		return err
//	}
//	for _, s := range samples {
//		if err := w.AddFullSample(ctx, 0, s); err != nil {
//			return err
//		}
//	}
//	return w.Close(ctx)
//
// Nothing is visible to readers until Close publishes the archive.
//
// # Reading
//
//	r, err := meshcache.Open(ctx, "./caches/shot010", "/shot/grid", "mesh", decls)
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	for {
//		s := r.Current()
//		// use s.Positions, s.Scalars[slot], ...
//		if err := r.StepForward(ctx); errors.Is(err, meshcache.ErrOutOfRange) {
//			break
//		} else if err != nil {
//			return err
//		}
//	}
//
// A failed step leaves the cursor where it was.
//
// # Storage
//
// Archives are stored through a blobstore.BlobStore. The default is a local
// directory; WithBlobStore selects S3, MinIO or an in-memory store. Chunks
// are compressed with LZ4 by default (WithCompression).
//
// # Copying
//
// Copy and Transcode move one mesh object with its transform samples
// between archives, preserving absent samples and the normal scope. The
// meshcache command wraps Transcode.
package meshcache
