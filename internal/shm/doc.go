// Package shm names, creates, maps and reference-counts the shared-memory
// segments handed to the engine.
//
// A segment is addressed by a key built from the process scope, an
// identifier and its size in words (see Key). The Registry hands out a
// Mapping (a local view, released after writing) and a Handle (a reference
// that keeps the segment alive). Slot caches a handle per channel so repeat
// uploads of the same size reuse one segment.
//
//	reg := shm.NewRegistry(shm.Options{})
//	var slot shm.Slot
//
//	m, found, err := slot.Acquire(reg, shm.Key(shm.ProcessScope(), "terrain", words), words)
//	if err != nil {
//	    return err
//	}
//	copy(m.Bytes(), payload)
//	_ = m.Release()
//
// On Linux segments are files under /dev/shm; other Unix systems use the temp
// directory. Windows uses named paging-file mappings.
package shm
