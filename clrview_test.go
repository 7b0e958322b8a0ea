package clrview_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/clrview/clrview"
	clrerr "github.com/clrview/clrview/errors"
	"github.com/clrview/clrview/pe"
)

// buildManagedImage assembles a complete synthetic managed executable:
// a PE32 container with one .text section holding the CLI header, the
// metadata root, a #~ stream with Module and MethodDef tables, and a
// #Strings heap with "Main" and ".ctor".
//
// Layout: section .text at rva 0x2000 / file 0x200. CLI header at rva
// 0x2000, metadata root at rva 0x2048 (file 0x248).
func buildManagedImage(machine uint16, entryToken uint32) []byte {
	const (
		ntBase   = 0x80
		optBase  = ntBase + 24
		optSize  = 224
		sectBase = optBase + optSize
		textRaw  = 0x200
		textRVA  = 0x2000
		cliRVA   = textRVA
		rootRaw  = 0x248
		rootRVA  = 0x2048
	)
	le := binary.LittleEndian
	buf := make([]byte, 0x600)

	// Container.
	le.PutUint16(buf[0:], 0x5A4D)
	le.PutUint32(buf[0x3C:], ntBase)
	le.PutUint32(buf[ntBase:], 0x00004550)
	le.PutUint16(buf[ntBase+4:], machine)
	le.PutUint16(buf[ntBase+6:], 1) // one section
	le.PutUint16(buf[ntBase+20:], optSize)
	le.PutUint16(buf[optBase:], 0x10B)
	le.PutUint32(buf[optBase+28:], 0x400000)
	le.PutUint32(buf[optBase+32:], 0x1000)
	le.PutUint32(buf[optBase+36:], 0x200)
	le.PutUint32(buf[optBase+92:], 16)
	le.PutUint32(buf[optBase+96+pe.DirectoryCLRRuntime*8:], cliRVA)
	le.PutUint32(buf[optBase+96+pe.DirectoryCLRRuntime*8+4:], 72)
	copy(buf[sectBase:], ".text")
	le.PutUint32(buf[sectBase+8:], 0x400) // virtual size
	le.PutUint32(buf[sectBase+12:], textRVA)
	le.PutUint32(buf[sectBase+16:], 0x400) // raw size
	le.PutUint32(buf[sectBase+20:], textRaw)

	// CLI header at file 0x200.
	le.PutUint32(buf[textRaw:], 72)
	le.PutUint16(buf[textRaw+4:], 2)
	le.PutUint16(buf[textRaw+6:], 5)
	le.PutUint32(buf[textRaw+8:], rootRVA)
	le.PutUint32(buf[textRaw+12:], 150)
	le.PutUint32(buf[textRaw+16:], 0x1) // ILONLY
	le.PutUint32(buf[textRaw+20:], entryToken)

	// Metadata root at file 0x248. Header is 32 bytes plus 12 for the
	// "#~" stream header and 20 for "#Strings", so streams begin at
	// root-relative 0x40.
	md := buf[rootRaw:]
	le.PutUint32(md[0:], 0x424A5342)
	le.PutUint16(md[4:], 1)
	le.PutUint16(md[6:], 1)
	le.PutUint32(md[12:], 12) // version buffer length
	copy(md[16:], "v4.0.30319")
	le.PutUint16(md[30:], 2) // stream count
	le.PutUint32(md[32:], 0x40)
	le.PutUint32(md[36:], 70)
	copy(md[40:], "#~")
	le.PutUint32(md[44:], 0x40+70)
	le.PutUint32(md[48:], 16)
	copy(md[52:], "#Strings")

	// #~ stream at root-relative 0x40: Module (1 row) and MethodDef
	// (2 rows).
	ts := md[0x40:]
	ts[4] = 2 // major version
	le.PutUint64(ts[8:], 1<<0|1<<6)
	le.PutUint32(ts[24:], 1) // Module rows
	le.PutUint32(ts[28:], 2) // MethodDef rows
	// Module row: 10 bytes, zeros are fine.
	method := ts[32+10:]
	le.PutUint32(method[0:], 0x2100) // rva
	le.PutUint16(method[6:], 0x0096) // flags
	le.PutUint16(method[8:], 1)      // name -> "Main"
	le.PutUint16(method[12:], 1)     // param list
	le.PutUint32(method[14:], 0x2120)
	le.PutUint16(method[22:], 6) // name -> ".ctor"

	// #Strings heap at root-relative 0x40+70.
	heap := md[0x40+70:]
	copy(heap[1:], "Main")
	copy(heap[6:], ".ctor")

	return buf
}

func TestInspect(t *testing.T) {
	data := buildManagedImage(pe.MachineI386, 0x06000001)

	report, err := clrview.Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}

	if report.EntryPoint != "Main" {
		t.Errorf("entry point: got %q, want %q", report.EntryPoint, "Main")
	}
	if report.Size != len(data) {
		t.Errorf("size: got %d, want %d", report.Size, len(data))
	}
	if report.Fingerprint != xxhash.Sum64(data) {
		t.Errorf("fingerprint mismatch")
	}

	if report.CLI.MajorRuntimeVersion != 2 || report.CLI.MinorRuntimeVersion != 5 {
		t.Errorf("runtime version: %d.%d", report.CLI.MajorRuntimeVersion, report.CLI.MinorRuntimeVersion)
	}
	if report.CLI.Metadata.VirtualAddress != 0x2048 {
		t.Errorf("metadata rva: 0x%x", report.CLI.Metadata.VirtualAddress)
	}
	if report.Root.Version != "v4.0.30319" {
		t.Errorf("metadata version: %q", report.Root.Version)
	}
	if len(report.Root.Streams) != 2 {
		t.Errorf("streams: %d", len(report.Root.Streams))
	}

	if len(report.Methods) != 2 {
		t.Fatalf("methods: got %d, want 2", len(report.Methods))
	}
	if report.Methods[0].Name != "Main" || report.Methods[0].RVA != 0x2100 {
		t.Errorf("method 0: %+v", report.Methods[0])
	}
	if report.Methods[1].Name != ".ctor" || report.Methods[1].RVA != 0x2120 {
		t.Errorf("method 1: %+v", report.Methods[1])
	}
}

func TestInspectSecondMethodEntryPoint(t *testing.T) {
	data := buildManagedImage(pe.MachineI386, 0x06000002)

	report, err := clrview.Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if report.EntryPoint != ".ctor" {
		t.Errorf("entry point: got %q, want %q", report.EntryPoint, ".ctor")
	}
}

func TestInspectAnyMachine(t *testing.T) {
	// The managed-image test is CLR-directory presence, not the COFF
	// machine field: arm64 and AnyCPU images must inspect cleanly.
	data := buildManagedImage(pe.MachineARM64, 0x06000001)

	report, err := clrview.Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if report.Image.Machine != pe.MachineARM64 {
		t.Errorf("machine: 0x%04x", report.Image.Machine)
	}
	if report.EntryPoint != "Main" {
		t.Errorf("entry point: %q", report.EntryPoint)
	}
}

func TestInspectNotManaged(t *testing.T) {
	data := buildManagedImage(pe.MachineI386, 0x06000001)
	// Clear the CLR directory slot.
	const optBase = 0x80 + 24
	binary.LittleEndian.PutUint32(data[optBase+96+pe.DirectoryCLRRuntime*8:], 0)

	_, err := clrview.Inspect(data)
	if err == nil {
		t.Fatal("expected error for image without CLR directory")
	}
	if !errors.Is(err, &clrerr.Error{Phase: clrerr.PhaseLoad, Kind: clrerr.KindNotFound}) {
		t.Errorf("wrong error: %v", err)
	}
}

func TestInspectBadEntryToken(t *testing.T) {
	tests := []struct {
		name  string
		token uint32
	}{
		{"row zero", 0x06000000},
		{"row past table", 0x06000009},
		{"typedef token", 0x02000001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildManagedImage(pe.MachineI386, tt.token)
			if _, err := clrview.Inspect(data); err == nil {
				t.Error("expected resolution error")
			}
		})
	}
}

func TestInspectCorruptMetadataSignature(t *testing.T) {
	data := buildManagedImage(pe.MachineI386, 0x06000001)
	binary.LittleEndian.PutUint32(data[0x248:], 0xDEADBEEF)

	if _, err := clrview.Inspect(data); err == nil {
		t.Error("expected metadata signature error")
	}
}

func TestInspectUnmappableMetadata(t *testing.T) {
	data := buildManagedImage(pe.MachineI386, 0x06000001)
	// Point the CLI header's metadata directory outside every section.
	binary.LittleEndian.PutUint32(data[0x200+8:], 0x9000)

	_, err := clrview.Inspect(data)
	if err == nil {
		t.Fatal("expected unmappable-address error")
	}
	if !errors.Is(err, &clrerr.Error{Phase: clrerr.PhaseMap, Kind: clrerr.KindOutOfBounds}) {
		t.Errorf("wrong error: %v", err)
	}
}

func TestInspectNotAnExecutable(t *testing.T) {
	if _, err := clrview.Inspect([]byte("not an executable")); err == nil {
		t.Error("expected container parse error")
	}
}
