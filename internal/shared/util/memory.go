package util

import "runtime"

// HeapAllocMB is the live heap in MiB, logged at the end of each run.
func HeapAllocMB() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc >> 20
}
