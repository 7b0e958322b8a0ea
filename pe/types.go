package pe

// PE container signatures and layout constants.
const (
	// DOSMagic is the "MZ" signature at offset 0.
	DOSMagic uint16 = 0x5A4D

	// NTSignature is the "PE\0\0" signature at e_lfanew.
	NTSignature uint32 = 0x00004550

	// MagicPE32 and MagicPE32Plus discriminate the optional header layout.
	MagicPE32     uint16 = 0x10B
	MagicPE32Plus uint16 = 0x20B

	// lfanewOffset is the file offset of the e_lfanew field in the DOS header.
	lfanewOffset = 0x3C

	// coffHeaderSize covers the NT signature plus the COFF file header.
	coffHeaderSize = 24

	// sectionHeaderSize is the on-disk size of one section table entry.
	sectionHeaderSize = 40
)

// Data directory slot indices. Only the CLR runtime slot is consumed here;
// the rest are decoded for the dump.
const (
	DirectoryCLRRuntime = 14
)

// Machine types seen in the COFF header. Decoded for reporting only: the
// managed-image test is CLR-directory presence, since AnyCPU and non-x86
// managed images carry other machine values.
const (
	MachineI386  uint16 = 0x014C
	MachineAMD64 uint16 = 0x8664
	MachineARM64 uint16 = 0xAA64
)

// DataDirectory is one slot of the optional header's directory array.
type DataDirectory struct {
	VirtualAddress uint32
	Size           uint32
}

// Present reports whether the slot points at anything.
func (d DataDirectory) Present() bool {
	return d.VirtualAddress != 0 && d.Size != 0
}

// Section is one entry of the section table. RawPointer is not necessarily
// aligned to FileAlignment; the metadata pipeline corrects for that when
// translating addresses.
type Section struct {
	Name            string
	VirtualSize     uint32
	VirtualAddress  uint32
	RawSize         uint32
	RawPointer      uint32
	Characteristics uint32
}

// Image is the parsed container. Data is the entire file; every other field
// is decoded from fixed header layouts. Sections and directories are views
// into the header, not copies of section contents.
type Image struct {
	Data             []byte
	Machine          uint16
	Characteristics  uint16
	Is64Bit          bool
	ImageBase        uint64
	SectionAlignment uint32
	FileAlignment    uint32
	DataDirectories  []DataDirectory
	Sections         []Section
}

// CLRDirectory returns the CLR runtime header directory (slot 14) and
// whether it is present.
func (img *Image) CLRDirectory() (DataDirectory, bool) {
	if DirectoryCLRRuntime >= len(img.DataDirectories) {
		return DataDirectory{}, false
	}
	dir := img.DataDirectories[DirectoryCLRRuntime]
	return dir, dir.Present()
}

// MachineName returns a human-readable name for the COFF machine field.
func MachineName(machine uint16) string {
	switch machine {
	case MachineI386:
		return "x86"
	case MachineAMD64:
		return "x64"
	case MachineARM64:
		return "arm64"
	default:
		return "unknown"
	}
}
