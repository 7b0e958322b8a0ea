package cil

import (
	"github.com/clrview/clrview/errors"
	"github.com/clrview/clrview/pe"
)

// rawPointerGranularity is the physical alignment of section data in the
// container format. Some tools emit raw pointers not aligned to the
// declared file alignment; the pointer is always masked down to this
// boundary before use.
const rawPointerGranularity = 0x200

// pageSize caps how far past the declared raw size a section may be read.
const pageSize = 0x1000

// Mapper translates image-relative virtual addresses into file offsets
// using the section table geometry. It holds no state beyond the section
// list and is safe for concurrent use.
type Mapper struct {
	sections      []pe.Section
	fileAlignment uint32
}

// NewMapper creates a Mapper over the given sections. fileAlignment is the
// optional header's declared file alignment.
func NewMapper(sections []pe.Section, fileAlignment uint32) *Mapper {
	return &Mapper{sections: sections, fileAlignment: fileAlignment}
}

// FileOffset maps a virtual address to a file byte offset. It fails with
// an unmappable-address error when no section's readable virtual range
// covers the address.
func (m *Mapper) FileOffset(rva uint32) (uint32, error) {
	for _, s := range m.sections {
		size := m.readableSize(s)
		if rva >= s.VirtualAddress && rva < s.VirtualAddress+size {
			return rva - s.VirtualAddress + (s.RawPointer &^ (rawPointerGranularity - 1)), nil
		}
	}
	return 0, errors.Unmapped(rva)
}

// readableSize computes how many bytes of a section's virtual range are
// actually backed by file data. The raw size and virtual size can diverge
// (sections zero-padded in memory but compact on disk), so both bound the
// result.
func (m *Mapper) readableSize(s pe.Section) uint32 {
	size := alignUp(s.RawPointer+s.RawSize, m.fileAlignment)
	if limit := alignUp(s.RawSize, pageSize); size > limit {
		size = limit
	}
	if s.VirtualSize != 0 {
		if limit := alignUp(s.VirtualSize, pageSize); size > limit {
			size = limit
		}
	}
	return size
}

// alignUp rounds v up to the next multiple of align. align must be a
// power of two; zero leaves v untouched.
func alignUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}
