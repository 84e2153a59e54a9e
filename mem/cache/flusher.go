package cache

// flusher writes back the dirty lines, one per cycle, and then invalidates
// the cache. It waits for pending misses and writebacks to complete first.
type flusher struct {
	*Comp
}

func (f *flusher) Tick() bool {
	if !f.flushing {
		return false
	}

	if f.mshr.Len() > 0 {
		return false
	}

	if f.bottomConn != nil {
		entry, next, found := f.memory.NextDirtyEntry(f.flushCursor)
		if found {
			if !f.writebackBuf.CanPush() {
				return false
			}

			f.queueWriteback(*entry)
			entry.Dirty = false
			f.flushCursor = next

			return true
		}

		if f.writebackBuf.Size() > 0 || len(f.inflightWritebacks) > 0 {
			return false
		}
	}

	f.memory.InvalidateAll()
	f.flushing = false
	f.flushCursor = 0

	return true
}
