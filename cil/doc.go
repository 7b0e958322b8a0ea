// Package cil decodes the CLR metadata of a managed executable image.
//
// The pipeline runs strictly forward over one immutable byte buffer:
//
//	Mapper              RVA to file offset translation from section geometry
//	DecodeCLIHeader     fixed-layout CLI (COR20) header
//	DecodeMetadataRoot  metadata root with its stream directory
//	DecodeTableStream   the #~ compressed tables stream
//	ResolveEntryPoint   entry-point token to method name via #Strings
//
// Only the MethodDef table is materialized; every other table present in
// the valid bitmask is skipped byte-accurately using its fixed row width,
// which keeps all subsequent stream offsets correct.
//
// The decoder covers the narrow-index subset of the format: images whose
// heap-size flags request 4-byte heap indices are rejected rather than
// mis-decoded. All reads are bounds-checked; input is untrusted.
package cil
