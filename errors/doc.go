// Package errors provides structured error types for the clrview inspector.
//
// Errors are categorized by Phase (which pipeline stage failed) and Kind
// (error category). The Error type includes rich context: a structure path,
// the offending numeric value, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTables, errors.KindUnsupported).
//		Path("tables", "rowcounts").
//		Value(tableID).
//		Detail("table id %d has no known row width", tableID).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unmapped(rva)
//	err := errors.OutOfBounds(errors.PhaseResolve, path, 10, 5)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
