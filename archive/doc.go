// Package archive implements the container that stores time-sampled mesh
// data on top of a blobstore.BlobStore.
//
// An archive is three kinds of blob:
//
//	data-NNNNNN.mcd   append-only stream of checksummed, optionally compressed chunks
//	MANIFEST-NNNNNN   object hierarchy, property headers and sample references
//	CURRENT           name of the committed manifest
//
// Objects form a tree addressed by path segments. Each object owns typed
// properties; every property records, per sample index, whether data is
// present (a roaring bitmap) and where its chunk lives. Custom attributes of
// a mesh live in the object's arbGeomParams group.
//
// Writers are single-owner and publish on Close by writing the manifest and
// then swapping CURRENT. Readers only ever see committed archives.
package archive
