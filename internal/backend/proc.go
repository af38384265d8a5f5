package backend

import (
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcResolver fills in application names for windows whose backend only
// reports an owning pid. Lookups go through gopsutil and are cached per
// pid; app terminations invalidate the entry.
type ProcResolver struct {
	mu    sync.Mutex
	names map[int32]string
}

// NewProcResolver creates an empty resolver.
func NewProcResolver() *ProcResolver {
	return &ProcResolver{names: make(map[int32]string)}
}

// AppName returns the process name for pid, or "" when the process is
// gone. A vanished process is not an error; the window it owned is about
// to be reported destroyed anyway.
func (r *ProcResolver) AppName(pid int32) string {
	if pid <= 0 {
		return ""
	}

	r.mu.Lock()
	name, ok := r.names[pid]
	r.mu.Unlock()
	if ok {
		return name
	}

	proc, err := process.NewProcess(pid)
	if err != nil {
		return ""
	}
	name, err = proc.Name()
	if err != nil {
		return ""
	}
	name = strings.TrimSpace(name)

	r.mu.Lock()
	r.names[pid] = name
	r.mu.Unlock()
	return name
}

// Forget drops the cached name for a terminated process.
func (r *ProcResolver) Forget(pid int32) {
	r.mu.Lock()
	delete(r.names, pid)
	r.mu.Unlock()
}
