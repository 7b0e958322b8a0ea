package cil

import (
	"math/bits"

	"go.uber.org/zap"

	bin "github.com/clrview/clrview/cil/internal/binary"
	"github.com/clrview/clrview/errors"
)

// TableCount pairs a table id with its row count, in ascending id order
// as dictated by the valid bitmask.
type TableCount struct {
	ID   uint8
	Rows uint32
}

// MethodRow is one fully decoded MethodDef table row. Name and Signature
// are narrow heap indices; ParamList is a 1-based Param table index.
type MethodRow struct {
	RVA       uint32
	ImplFlags uint16
	Flags     uint16
	Name      uint16
	Signature uint16
	ParamList uint16
}

// TableStream is the decoded #~ stream. Only MethodDef rows are
// materialized; every other present table is consumed as a byte span.
type TableStream struct {
	MajorVersion uint8
	MinorVersion uint8
	HeapSizes    uint8
	Valid        uint64
	Sorted       uint64
	Counts       []TableCount
	Methods      []MethodRow
}

// RowCount returns the row count recorded for a table id, zero when the
// table is absent.
func (t *TableStream) RowCount(id uint8) uint32 {
	for _, c := range t.Counts {
		if c.ID == id {
			return c.Rows
		}
	}
	return 0
}

// DecodeTableStream decodes the #~ stream from its exact byte span.
//
// The row layout is self-describing: bit i of the valid bitmask marks
// table i as present, each present table contributes one 32-bit row
// count, and the row data follows in the same ascending-id order. Tables
// other than MethodDef are skipped by their fixed row width; a table id
// with no known width and a nonzero count is fatal, since silently
// advancing zero bytes would corrupt every following read.
func DecodeTableStream(data []byte) (*TableStream, error) {
	r := bin.NewReader(data)

	// reserved u32, versions, heap-size flags, reserved u8.
	if err := r.Skip(4); err != nil {
		return nil, r.WrapError("tables header", err)
	}
	t := &TableStream{}
	var err error
	if t.MajorVersion, err = r.ReadU8(); err != nil {
		return nil, r.WrapError("tables header", err)
	}
	if t.MinorVersion, err = r.ReadU8(); err != nil {
		return nil, r.WrapError("tables header", err)
	}
	if t.HeapSizes, err = r.ReadU8(); err != nil {
		return nil, r.WrapError("tables header", err)
	}
	if err = r.Skip(1); err != nil {
		return nil, r.WrapError("tables header", err)
	}
	if t.Valid, err = r.ReadU64(); err != nil {
		return nil, r.WrapError("tables header", err)
	}
	if t.Sorted, err = r.ReadU64(); err != nil {
		return nil, r.WrapError("tables header", err)
	}

	if t.HeapSizes != 0 {
		return nil, errors.New(errors.PhaseTables, errors.KindUnsupported).
			Path("tables", "heapsizes").
			Value(t.HeapSizes).
			Detail("wide heap indices (flags 0x%02x) are outside the narrow-index subset", t.HeapSizes).
			Build()
	}

	t.Counts = make([]TableCount, 0, bits.OnesCount64(t.Valid))
	for id := 0; id < 64; id++ {
		if t.Valid&(1<<id) == 0 {
			continue
		}
		rows, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("row counts", err)
		}
		t.Counts = append(t.Counts, TableCount{ID: uint8(id), Rows: rows})
	}

	for _, c := range t.Counts {
		if c.ID == TableMethodDef {
			t.Methods = make([]MethodRow, c.Rows)
			for i := range t.Methods {
				if t.Methods[i], err = readMethodRow(r); err != nil {
					return nil, r.WrapError("method table", err)
				}
			}
			continue
		}

		width := uint32(0)
		if int(c.ID) < len(rowWidths) {
			width = rowWidths[c.ID]
		}
		if width == 0 {
			if c.Rows == 0 {
				continue
			}
			return nil, errors.New(errors.PhaseTables, errors.KindUnsupported).
				Path("tables", TableName(c.ID)).
				Value(c.ID).
				Detail("table id 0x%02x has no known row width (%d rows)", c.ID, c.Rows).
				Build()
		}
		if err = r.Skip(int(width) * int(c.Rows)); err != nil {
			return nil, r.WrapError("table rows", err)
		}

		Logger().Debug("skipped table",
			zap.String("table", TableName(c.ID)),
			zap.Uint32("rows", c.Rows),
			zap.Uint32("row_width", width),
		)
	}

	Logger().Debug("decoded table stream",
		zap.Uint64("valid", t.Valid),
		zap.Int("tables", len(t.Counts)),
		zap.Int("methods", len(t.Methods)),
	)

	return t, nil
}

func readMethodRow(r *bin.Reader) (MethodRow, error) {
	var m MethodRow
	var err error
	if m.RVA, err = r.ReadU32(); err != nil {
		return MethodRow{}, err
	}
	if m.ImplFlags, err = r.ReadU16(); err != nil {
		return MethodRow{}, err
	}
	if m.Flags, err = r.ReadU16(); err != nil {
		return MethodRow{}, err
	}
	if m.Name, err = r.ReadU16(); err != nil {
		return MethodRow{}, err
	}
	if m.Signature, err = r.ReadU16(); err != nil {
		return MethodRow{}, err
	}
	if m.ParamList, err = r.ReadU16(); err != nil {
		return MethodRow{}, err
	}
	return m, nil
}
