// Package clrview inspects managed (CLR-targeting) executable images and
// extracts their structural metadata: where the managed payload lives
// inside the native container, the metadata table layout, and the entry
// point's method name.
//
// It is a forensic reader, not a loader or verifier: it never executes
// code and validates only the structural decodability of the binary
// layout. Any malformed field aborts the whole inspection, because a
// partially decoded, silently wrong metadata view is worse than an
// explicit failure.
//
// The library is organized into a few packages with distinct roles:
//
//	clrview/       Root package: the Inspect driver and its Report
//	├── pe/        Native container parsing (sections, directories)
//	├── cil/       Metadata pipeline (RVA mapping, headers, #~, strings)
//	├── errors/    Structured error types with phase/kind taxonomy
//	└── cmd/       The inspect command-line tool
//
// Inspect a file:
//
//	data, err := os.ReadFile(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := clrview.Inspect(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report.EntryPoint)
package clrview

import (
	"github.com/cespare/xxhash/v2"

	"github.com/clrview/clrview/cil"
	"github.com/clrview/clrview/errors"
	"github.com/clrview/clrview/pe"
)

// Method is one decoded MethodDef row with its name resolved from the
// #Strings heap.
type Method struct {
	Name      string
	RVA       uint32
	ImplFlags uint16
	Flags     uint16
}

// Report is the full result of one inspection. Everything derives from
// the single immutable input buffer; a Report holds decoded values only.
type Report struct {
	Size        int
	Fingerprint uint64 // xxhash64 of the file bytes

	Image      *pe.Image
	CLI        *cil.CLIHeader
	Root       *cil.MetadataRoot
	Tables     *cil.TableStream
	Methods    []Method
	EntryPoint string
}

// Inspect runs the whole pipeline over raw file bytes: container parse,
// CLR directory lookup, RVA mapping, CLI header, metadata root, #~
// tables, and entry-point resolution. It fails fast on the first
// structural defect.
func Inspect(data []byte) (*Report, error) {
	img, err := pe.Parse(data)
	if err != nil {
		return nil, err
	}

	clrDir, ok := img.CLRDirectory()
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "data directory", "CLR runtime header")
	}

	mapper := cil.NewMapper(img.Sections, img.FileAlignment)

	cliOffset, err := mapper.FileOffset(clrDir.VirtualAddress)
	if err != nil {
		return nil, err
	}
	cliHeader, err := cil.DecodeCLIHeader(data, cliOffset)
	if err != nil {
		return nil, err
	}

	rootOffset, err := mapper.FileOffset(cliHeader.Metadata.VirtualAddress)
	if err != nil {
		return nil, err
	}
	root, err := cil.DecodeMetadataRoot(data, rootOffset)
	if err != nil {
		return nil, err
	}

	tablesHeader, ok := root.Stream(cil.StreamTables)
	if !ok {
		return nil, errors.NotFound(errors.PhaseHeader, "stream", cil.StreamTables)
	}
	stringsHeader, ok := root.Stream(cil.StreamStrings)
	if !ok {
		return nil, errors.NotFound(errors.PhaseHeader, "stream", cil.StreamStrings)
	}

	tableBytes, err := root.StreamBytes(data, tablesHeader)
	if err != nil {
		return nil, err
	}
	tables, err := cil.DecodeTableStream(tableBytes)
	if err != nil {
		return nil, err
	}

	stringBytes, err := root.StreamBytes(data, stringsHeader)
	if err != nil {
		return nil, err
	}
	heap := cil.NewStringHeap(stringBytes)

	methods := make([]Method, len(tables.Methods))
	for i, row := range tables.Methods {
		name, err := heap.Get(uint32(row.Name))
		if err != nil {
			return nil, err
		}
		methods[i] = Method{
			Name:      name,
			RVA:       row.RVA,
			ImplFlags: row.ImplFlags,
			Flags:     row.Flags,
		}
	}

	entryPoint, err := cil.ResolveEntryPoint(cliHeader.EntryPointToken, tables.Methods, heap)
	if err != nil {
		return nil, err
	}

	return &Report{
		Size:        len(data),
		Fingerprint: xxhash.Sum64(data),
		Image:       img,
		CLI:         cliHeader,
		Root:        root,
		Tables:      tables,
		Methods:     methods,
		EntryPoint:  entryPoint,
	}, nil
}
