package cil_test

import (
	"errors"
	"testing"

	"github.com/clrview/clrview/cil"
	clrerr "github.com/clrview/clrview/errors"
)

// buildStringHeap lays strings out at the requested offsets, leaving
// intervening bytes zero.
func buildStringHeap(size int, strings map[uint32]string) cil.StringHeap {
	data := make([]byte, size)
	for off, s := range strings {
		copy(data[off:], s)
	}
	return cil.NewStringHeap(data)
}

func TestStringHeapGet(t *testing.T) {
	heap := buildStringHeap(32, map[uint32]string{1: "Main", 10: ".ctor"})

	tests := []struct {
		index uint32
		want  string
	}{
		{0, ""}, // offset 0 is the empty string by construction
		{1, "Main"},
		{10, ".ctor"},
		{3, "in"}, // mid-string offsets are valid heap indices
	}
	for _, tt := range tests {
		got, err := heap.Get(tt.index)
		if err != nil {
			t.Errorf("Get(%d): %v", tt.index, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Get(%d): got %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestStringHeapGetOutOfRange(t *testing.T) {
	heap := buildStringHeap(8, map[uint32]string{1: "Main"})

	for _, index := range []uint32{8, 100} {
		if _, err := heap.Get(index); err == nil {
			t.Errorf("Get(%d): expected out-of-range error", index)
		}
	}
}

func TestStringHeapGetUnterminated(t *testing.T) {
	heap := cil.NewStringHeap([]byte{'M', 'a', 'i', 'n'})
	if _, err := heap.Get(0); err == nil {
		t.Error("expected error for string running past heap end")
	}
}

func TestResolveEntryPointFirstMethod(t *testing.T) {
	// Token 0x06000001: table id 6 (MethodDef), row index 1 → row 0.
	heap := buildStringHeap(32, map[uint32]string{10: "Main"})
	methods := []cil.MethodRow{{RVA: 0x2050, Name: 10}}

	name, err := cil.ResolveEntryPoint(0x06000001, methods, heap)
	if err != nil {
		t.Fatalf("ResolveEntryPoint: %v", err)
	}
	if name != "Main" {
		t.Errorf("name: got %q, want %q", name, "Main")
	}
}

func TestResolveEntryPointLaterRow(t *testing.T) {
	heap := buildStringHeap(32, map[uint32]string{1: ".ctor", 8: "Run"})
	methods := []cil.MethodRow{{Name: 1}, {Name: 8}}

	name, err := cil.ResolveEntryPoint(0x06000002, methods, heap)
	if err != nil {
		t.Fatalf("ResolveEntryPoint: %v", err)
	}
	if name != "Run" {
		t.Errorf("name: got %q, want %q", name, "Run")
	}
}

func TestResolveEntryPointRejections(t *testing.T) {
	heap := buildStringHeap(32, map[uint32]string{10: "Main"})
	methods := []cil.MethodRow{{Name: 10}, {Name: 60}}

	tests := []struct {
		name  string
		token uint32
	}{
		{"row index zero", 0x06000000},
		{"row past method table", 0x06000003},
		{"wrong table id", 0x02000001},
		{"name offset past heap", 0x06000002},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cil.ResolveEntryPoint(tt.token, methods, heap)
			if err == nil {
				t.Fatal("expected resolution error")
			}
			if !errors.Is(err, &clrerr.Error{Phase: clrerr.PhaseResolve, Kind: clrerr.KindUnresolved}) &&
				!errors.Is(err, &clrerr.Error{Phase: clrerr.PhaseResolve, Kind: clrerr.KindOutOfBounds}) {
				t.Errorf("wrong error: %v", err)
			}
		})
	}
}

func TestResolveEntryPointEmptyMethodTable(t *testing.T) {
	heap := buildStringHeap(8, nil)
	if _, err := cil.ResolveEntryPoint(0x06000001, nil, heap); err == nil {
		t.Error("expected error for empty method table")
	}
}
