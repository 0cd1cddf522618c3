// Package fs abstracts the file system operations used by the local blob
// store so that archive writes can be tested against injected failures.
//
// Production code uses [Default] ([LocalFS]). Tests wrap it in [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("data-", fs.Fault{FailAfterBytes: 1024})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// Calls take no context: local file operations are not interruptible at the
// syscall level. Remote stores live behind blobstore.BlobStore, which does.
package fs
