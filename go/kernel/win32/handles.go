package win32

import (
	"sort"
)

const firstHandle = 0x80

// Handles hands out guest-visible handle values. Values increase monotonically
// and are never reused within a session.
type Handles struct {
	next uint64
	objs map[uint64]interface{}
}

func NewHandles() *Handles {
	return &Handles{next: firstHandle, objs: make(map[uint64]interface{})}
}

func (h *Handles) New(obj interface{}) uint64 {
	v := h.next
	h.next += 4
	h.objs[v] = obj
	return v
}

func (h *Handles) Get(v uint64) (interface{}, bool) {
	obj, ok := h.objs[v]
	return obj, ok
}

// Close releases v. It returns false if v is not an open handle.
func (h *Handles) Close(v uint64) bool {
	if _, ok := h.objs[v]; !ok {
		return false
	}
	delete(h.objs, v)
	return true
}

func (h *Handles) Len() int {
	return len(h.objs)
}

// Open lists the open handle values in ascending order.
func (h *Handles) Open() []uint64 {
	ret := make([]uint64, 0, len(h.objs))
	for v := range h.objs {
		ret = append(ret, v)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}
