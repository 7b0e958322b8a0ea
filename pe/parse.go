package pe

import (
	"encoding/binary"
	"strings"

	"github.com/clrview/clrview/errors"
)

// Optional header field offsets, relative to the optional header start.
// The image base and directory array move between PE32 and PE32+; the
// alignment pair does not.
const (
	optImageBase32      = 28
	optImageBase64      = 24
	optSectionAlignment = 32
	optFileAlignment    = 36
	optDirCount32       = 92
	optDirCount64       = 108
	optDirectories32    = 96
	optDirectories64    = 112
	maxDataDirectories  = 16
)

// Parse decodes the PE container from raw file bytes. The returned Image
// aliases data; it never copies section contents.
func Parse(data []byte) (*Image, error) {
	p := parser{data: data}

	magic, err := p.u16(0, "dos header")
	if err != nil {
		return nil, err
	}
	if magic != DOSMagic {
		return nil, errors.InvalidData(errors.PhaseLoad, []string{"dos header"}, "missing MZ signature")
	}

	lfanew, err := p.u32(lfanewOffset, "dos header")
	if err != nil {
		return nil, err
	}
	ntBase := int(lfanew)

	sig, err := p.u32(ntBase, "nt headers")
	if err != nil {
		return nil, err
	}
	if sig != NTSignature {
		return nil, errors.BadSignature(errors.PhaseLoad, []string{"nt headers"}, sig, NTSignature)
	}

	img := &Image{Data: data}

	// COFF file header follows the 4-byte signature.
	if img.Machine, err = p.u16(ntBase+4, "coff header"); err != nil {
		return nil, err
	}
	sectionCount, err := p.u16(ntBase+6, "coff header")
	if err != nil {
		return nil, err
	}
	optSize, err := p.u16(ntBase+20, "coff header")
	if err != nil {
		return nil, err
	}
	if img.Characteristics, err = p.u16(ntBase+22, "coff header"); err != nil {
		return nil, err
	}
	if optSize == 0 {
		return nil, errors.NotFound(errors.PhaseLoad, "header", "optional header")
	}

	optBase := ntBase + coffHeaderSize
	optMagic, err := p.u16(optBase, "optional header")
	if err != nil {
		return nil, err
	}

	var dirCountOff, dirBaseOff int
	switch optMagic {
	case MagicPE32:
		base, err := p.u32(optBase+optImageBase32, "optional header")
		if err != nil {
			return nil, err
		}
		img.ImageBase = uint64(base)
		dirCountOff, dirBaseOff = optDirCount32, optDirectories32
	case MagicPE32Plus:
		img.Is64Bit = true
		if img.ImageBase, err = p.u64(optBase+optImageBase64, "optional header"); err != nil {
			return nil, err
		}
		dirCountOff, dirBaseOff = optDirCount64, optDirectories64
	default:
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Path("optional header").
			Value(optMagic).
			Detail("unrecognized optional header magic 0x%04x", optMagic).
			Build()
	}

	if img.SectionAlignment, err = p.u32(optBase+optSectionAlignment, "optional header"); err != nil {
		return nil, err
	}
	if img.FileAlignment, err = p.u32(optBase+optFileAlignment, "optional header"); err != nil {
		return nil, err
	}

	dirCount, err := p.u32(optBase+dirCountOff, "optional header")
	if err != nil {
		return nil, err
	}
	if dirCount > maxDataDirectories {
		dirCount = maxDataDirectories
	}
	img.DataDirectories = make([]DataDirectory, dirCount)
	for i := range img.DataDirectories {
		off := optBase + dirBaseOff + i*8
		va, err := p.u32(off, "data directories")
		if err != nil {
			return nil, err
		}
		size, err := p.u32(off+4, "data directories")
		if err != nil {
			return nil, err
		}
		img.DataDirectories[i] = DataDirectory{VirtualAddress: va, Size: size}
	}

	sectBase := optBase + int(optSize)
	img.Sections = make([]Section, sectionCount)
	for i := range img.Sections {
		off := sectBase + i*sectionHeaderSize
		name, err := p.bytes(off, 8, "section table")
		if err != nil {
			return nil, err
		}
		s := Section{Name: strings.TrimRight(string(name), "\x00")}
		if s.VirtualSize, err = p.u32(off+8, "section table"); err != nil {
			return nil, err
		}
		if s.VirtualAddress, err = p.u32(off+12, "section table"); err != nil {
			return nil, err
		}
		if s.RawSize, err = p.u32(off+16, "section table"); err != nil {
			return nil, err
		}
		if s.RawPointer, err = p.u32(off+20, "section table"); err != nil {
			return nil, err
		}
		if s.Characteristics, err = p.u32(off+36, "section table"); err != nil {
			return nil, err
		}
		img.Sections[i] = s
	}

	return img, nil
}

// parser provides bounds-checked absolute-offset reads over the file bytes.
type parser struct {
	data []byte
}

func (p parser) bytes(off, n int, structure string) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(p.data) {
		return nil, errors.Truncated(errors.PhaseLoad, []string{structure}, off, len(p.data))
	}
	return p.data[off : off+n], nil
}

func (p parser) u16(off int, structure string) (uint16, error) {
	b, err := p.bytes(off, 2, structure)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (p parser) u32(off int, structure string) (uint32, error) {
	b, err := p.bytes(off, 4, structure)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (p parser) u64(off int, structure string) (uint64, error) {
	b, err := p.bytes(off, 8, structure)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}
