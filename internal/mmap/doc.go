// Package mmap maps archive data files into memory for read-only access.
//
// The local blob store opens every data file through this package, so a
// sample read is a bounds-checked copy out of the page cache instead of a
// read syscall. Callers hint the kernel with [Mapping.Advise]: sequential for
// copy pipelines, random for cursors that seek.
//
//	m, err := mmap.Open("data-000001.mcd")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessRandom)
//	buf := make([]byte, 24)
//	_, err = m.ReadAt(buf, off)
//
// Unix uses mmap(2) and madvise(2); Windows uses MapViewOfFile and treats
// Advise as a no-op.
//
// A Mapping may be read concurrently. Close is idempotent; no slice obtained
// from Bytes may be used after it returns.
package mmap
