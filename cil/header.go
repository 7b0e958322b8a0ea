package cil

import (
	"go.uber.org/zap"

	bin "github.com/clrview/clrview/cil/internal/binary"
	"github.com/clrview/clrview/errors"
	"github.com/clrview/clrview/pe"
)

// CLIHeader is the fixed 72-byte COR20 header located via data-directory
// slot 14 of the optional header.
type CLIHeader struct {
	Size                    uint32
	MajorRuntimeVersion     uint16
	MinorRuntimeVersion     uint16
	Metadata                pe.DataDirectory
	Flags                   uint32
	EntryPointToken         uint32
	Resources               pe.DataDirectory
	StrongNameSignature     pe.DataDirectory
	CodeManagerTable        pe.DataDirectory
	VTableFixups            pe.DataDirectory
	ExportAddressTableJumps pe.DataDirectory
	ManagedNativeHeader     pe.DataDirectory
}

// StreamHeader names one metadata stream. Offset is relative to the
// metadata root's file offset, not the file start.
type StreamHeader struct {
	Offset uint32
	Size   uint32
	Name   string
}

// MetadataRoot is the header of the metadata block. FileOffset records
// where in the file the root starts, so stream offsets can be resolved.
type MetadataRoot struct {
	MajorVersion uint16
	MinorVersion uint16
	Version      string
	Flags        uint16
	Streams      []StreamHeader
	FileOffset   uint32
}

// Stream returns the stream header with the given name.
func (r *MetadataRoot) Stream(name string) (StreamHeader, bool) {
	for _, s := range r.Streams {
		if s.Name == name {
			return s, true
		}
	}
	return StreamHeader{}, false
}

// StreamBytes returns the byte span of a stream within the file buffer.
func (r *MetadataRoot) StreamBytes(data []byte, h StreamHeader) ([]byte, error) {
	start := uint64(r.FileOffset) + uint64(h.Offset)
	end := start + uint64(h.Size)
	if end > uint64(len(data)) {
		return nil, errors.New(errors.PhaseHeader, errors.KindTruncated).
			Path("stream", h.Name).
			Value(end).
			Detail("stream spans [%d, %d) past buffer end (length %d)", start, end, len(data)).
			Build()
	}
	return data[start:end], nil
}

// DecodeCLIHeader decodes the CLI header at the given file offset.
func DecodeCLIHeader(data []byte, offset uint32) (*CLIHeader, error) {
	r, err := bin.NewReaderAt(data, int(offset))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHeader, errors.KindTruncated, err, "cli header")
	}

	h := &CLIHeader{}
	if h.Size, err = r.ReadU32(); err != nil {
		return nil, r.WrapError("cli header", err)
	}
	if h.MajorRuntimeVersion, err = r.ReadU16(); err != nil {
		return nil, r.WrapError("cli header", err)
	}
	if h.MinorRuntimeVersion, err = r.ReadU16(); err != nil {
		return nil, r.WrapError("cli header", err)
	}
	if h.Metadata, err = readDirectory(r); err != nil {
		return nil, r.WrapError("cli header", err)
	}
	if h.Flags, err = r.ReadU32(); err != nil {
		return nil, r.WrapError("cli header", err)
	}
	if h.EntryPointToken, err = r.ReadU32(); err != nil {
		return nil, r.WrapError("cli header", err)
	}
	for _, dir := range []*pe.DataDirectory{
		&h.Resources,
		&h.StrongNameSignature,
		&h.CodeManagerTable,
		&h.VTableFixups,
		&h.ExportAddressTableJumps,
		&h.ManagedNativeHeader,
	} {
		if *dir, err = readDirectory(r); err != nil {
			return nil, r.WrapError("cli header", err)
		}
	}

	Logger().Debug("decoded cli header",
		zap.Uint32("metadata_rva", h.Metadata.VirtualAddress),
		zap.Uint32("metadata_size", h.Metadata.Size),
		zap.Uint32("entry_point_token", h.EntryPointToken),
	)

	return h, nil
}

// DecodeMetadataRoot decodes the metadata root at the given file offset.
// The reader is windowed to the root so that the 4-byte alignment of
// variable-length strings is computed relative to the root start.
func DecodeMetadataRoot(data []byte, offset uint32) (*MetadataRoot, error) {
	if uint64(offset) > uint64(len(data)) {
		return nil, errors.Truncated(errors.PhaseHeader, []string{"metadata root"}, int(offset), len(data))
	}
	r := bin.NewReader(data[offset:])

	sig, err := r.ReadU32()
	if err != nil {
		return nil, r.WrapError("metadata root", err)
	}
	if sig != MetadataSignature {
		return nil, errors.BadSignature(errors.PhaseHeader, []string{"metadata root"}, sig, MetadataSignature)
	}

	root := &MetadataRoot{FileOffset: offset}
	if root.MajorVersion, err = r.ReadU16(); err != nil {
		return nil, r.WrapError("metadata root", err)
	}
	if root.MinorVersion, err = r.ReadU16(); err != nil {
		return nil, r.WrapError("metadata root", err)
	}
	// 4 reserved bytes, then the declared version-buffer length. The
	// string itself is read to its terminator and the cursor padded to a
	// 4-byte boundary.
	if err = r.Skip(4); err != nil {
		return nil, r.WrapError("metadata root", err)
	}
	if _, err = r.ReadU32(); err != nil {
		return nil, r.WrapError("metadata root", err)
	}
	if root.Version, err = r.ReadCString(); err != nil {
		return nil, r.WrapError("metadata root", err)
	}
	if err = r.Align4(); err != nil {
		return nil, r.WrapError("metadata root", err)
	}
	if root.Flags, err = r.ReadU16(); err != nil {
		return nil, r.WrapError("metadata root", err)
	}
	streamCount, err := r.ReadU16()
	if err != nil {
		return nil, r.WrapError("metadata root", err)
	}

	root.Streams = make([]StreamHeader, streamCount)
	for i := range root.Streams {
		var s StreamHeader
		if s.Offset, err = r.ReadU32(); err != nil {
			return nil, r.WrapError("stream header", err)
		}
		if s.Size, err = r.ReadU32(); err != nil {
			return nil, r.WrapError("stream header", err)
		}
		if s.Name, err = r.ReadCString(); err != nil {
			return nil, r.WrapError("stream header", err)
		}
		if err = r.Align4(); err != nil {
			return nil, r.WrapError("stream header", err)
		}
		root.Streams[i] = s

		Logger().Debug("decoded stream header",
			zap.String("name", s.Name),
			zap.Uint32("offset", s.Offset),
			zap.Uint32("size", s.Size),
		)
	}

	return root, nil
}

func readDirectory(r *bin.Reader) (pe.DataDirectory, error) {
	va, err := r.ReadU32()
	if err != nil {
		return pe.DataDirectory{}, err
	}
	size, err := r.ReadU32()
	if err != nil {
		return pe.DataDirectory{}, err
	}
	return pe.DataDirectory{VirtualAddress: va, Size: size}, nil
}
