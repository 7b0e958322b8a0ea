package cil

import (
	"github.com/clrview/clrview/errors"
)

// StringHeap is a view over the #Strings heap: a blob of null-terminated
// strings addressed by byte offset.
type StringHeap struct {
	data []byte
}

// NewStringHeap creates a heap view over the stream's exact byte span.
func NewStringHeap(data []byte) StringHeap {
	return StringHeap{data: data}
}

// Get reads the null-terminated string starting at the given heap offset.
func (h StringHeap) Get(index uint32) (string, error) {
	if uint64(index) >= uint64(len(h.data)) {
		return "", errors.OutOfBounds(errors.PhaseResolve, []string{"strings heap"}, int(index), len(h.data))
	}
	for i := int(index); i < len(h.data); i++ {
		if h.data[i] == 0 {
			return string(h.data[index:i]), nil
		}
	}
	return "", errors.InvalidData(errors.PhaseResolve, []string{"strings heap"}, "string runs past heap end")
}

// ResolveEntryPoint resolves the CLI header's entry-point token to the
// entry method's name. The token packs the table id in its high byte and
// a 1-based row index in its low three bytes; only MethodDef-table entry
// points are resolvable.
func ResolveEntryPoint(token uint32, methods []MethodRow, heap StringHeap) (string, error) {
	tableID := uint8(token >> 24)
	row := token & 0x00FFFFFF

	if tableID != TableMethodDef {
		return "", errors.Unresolved("entry point is not a MethodDef", token)
	}
	if row == 0 {
		return "", errors.Unresolved("row index 0 is below the 1-based minimum", token)
	}
	if uint64(row) > uint64(len(methods)) {
		return "", errors.Unresolved("row index past the method table end", token)
	}

	name, err := heap.Get(uint32(methods[row-1].Name))
	if err != nil {
		return "", errors.Wrap(errors.PhaseResolve, errors.KindUnresolved, err, "entry point name")
	}
	return name, nil
}
