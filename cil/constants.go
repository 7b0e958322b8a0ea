package cil

// MetadataSignature is the magic at the start of the metadata root
// ("BSJB" in little-endian).
const MetadataSignature uint32 = 0x424A5342

// Stream names consumed by the pipeline.
const (
	StreamTables  = "#~"       // compressed metadata tables
	StreamStrings = "#Strings" // null-terminated string heap
)

// Metadata table ids define the bit positions of the #~ valid bitmask.
// Ids absent from the list (0x03, 0x05, 0x07, 0x13, 0x16, 0x1E, 0x1F)
// are unused by the format and must not appear with a nonzero row count.
const (
	TableModule                 uint8 = 0x00
	TableTypeRef                uint8 = 0x01
	TableTypeDef                uint8 = 0x02
	TableField                  uint8 = 0x04
	TableMethodDef              uint8 = 0x06
	TableParam                  uint8 = 0x08
	TableInterfaceImpl          uint8 = 0x09
	TableMemberRef              uint8 = 0x0A
	TableConstant               uint8 = 0x0B
	TableCustomAttribute        uint8 = 0x0C
	TableFieldMarshal           uint8 = 0x0D
	TableDeclSecurity           uint8 = 0x0E
	TableClassLayout            uint8 = 0x0F
	TableFieldLayout            uint8 = 0x10
	TableStandAloneSig          uint8 = 0x11
	TableEventMap               uint8 = 0x12
	TableEvent                  uint8 = 0x14
	TablePropertyMap            uint8 = 0x15
	TableProperty               uint8 = 0x17
	TableMethodSemantics        uint8 = 0x18
	TableMethodImpl             uint8 = 0x19
	TableModuleRef              uint8 = 0x1A
	TableTypeSpec               uint8 = 0x1B
	TableImplMap                uint8 = 0x1C
	TableFieldRVA               uint8 = 0x1D
	TableAssembly               uint8 = 0x20
	TableAssemblyProcessor      uint8 = 0x21
	TableAssemblyOS             uint8 = 0x22
	TableAssemblyRef            uint8 = 0x23
	TableAssemblyRefProcessor   uint8 = 0x24
	TableAssemblyRefOS          uint8 = 0x25
	TableFile                   uint8 = 0x26
	TableExportedType           uint8 = 0x27
	TableManifestResource       uint8 = 0x28
	TableNestedClass            uint8 = 0x29
	TableGenericParam           uint8 = 0x2A
	TableMethodSpec             uint8 = 0x2B
	TableGenericParamConstraint uint8 = 0x2C
)

// methodRowSize is the on-disk size of one MethodDef row under narrow
// heap and table indices: rva u32, implFlags u16, flags u16, name u16,
// signature u16, paramList u16.
const methodRowSize = 14

// rowWidths maps table id to its fixed row byte width under narrow
// (2-byte) heap and table indices. A zero width means the id is unused;
// such a table appearing with a nonzero row count is a fatal decode
// error, because advancing zero bytes would desynchronize every
// following table.
var rowWidths = [64]uint32{
	TableModule:                 10,
	TableTypeRef:                6,
	TableTypeDef:                14,
	TableField:                  6,
	TableMethodDef:              methodRowSize,
	TableParam:                  6,
	TableInterfaceImpl:          4,
	TableMemberRef:              6,
	TableConstant:               6,
	TableCustomAttribute:        6,
	TableFieldMarshal:           4,
	TableDeclSecurity:           6,
	TableClassLayout:            8,
	TableFieldLayout:            6,
	TableStandAloneSig:          2,
	TableEventMap:               4,
	TableEvent:                  6,
	TablePropertyMap:            4,
	TableProperty:               6,
	TableMethodSemantics:        6,
	TableMethodImpl:             6,
	TableModuleRef:              2,
	TableTypeSpec:               2,
	TableImplMap:                8,
	TableFieldRVA:               6,
	TableAssembly:               22,
	TableAssemblyProcessor:      4,
	TableAssemblyOS:             12,
	TableAssemblyRef:            20,
	TableAssemblyRefProcessor:   6,
	TableAssemblyRefOS:          14,
	TableFile:                   8,
	TableExportedType:           14,
	TableManifestResource:       12,
	TableNestedClass:            4,
	TableGenericParam:           8,
	TableMethodSpec:             4,
	TableGenericParamConstraint: 4,
}

var tableNames = map[uint8]string{
	TableModule:                 "Module",
	TableTypeRef:                "TypeRef",
	TableTypeDef:                "TypeDef",
	TableField:                  "Field",
	TableMethodDef:              "MethodDef",
	TableParam:                  "Param",
	TableInterfaceImpl:          "InterfaceImpl",
	TableMemberRef:              "MemberRef",
	TableConstant:               "Constant",
	TableCustomAttribute:        "CustomAttribute",
	TableFieldMarshal:           "FieldMarshal",
	TableDeclSecurity:           "DeclSecurity",
	TableClassLayout:            "ClassLayout",
	TableFieldLayout:            "FieldLayout",
	TableStandAloneSig:          "StandAloneSig",
	TableEventMap:               "EventMap",
	TableEvent:                  "Event",
	TablePropertyMap:            "PropertyMap",
	TableProperty:               "Property",
	TableMethodSemantics:        "MethodSemantics",
	TableMethodImpl:             "MethodImpl",
	TableModuleRef:              "ModuleRef",
	TableTypeSpec:               "TypeSpec",
	TableImplMap:                "ImplMap",
	TableFieldRVA:               "FieldRVA",
	TableAssembly:               "Assembly",
	TableAssemblyProcessor:      "AssemblyProcessor",
	TableAssemblyOS:             "AssemblyOS",
	TableAssemblyRef:            "AssemblyRef",
	TableAssemblyRefProcessor:   "AssemblyRefProcessor",
	TableAssemblyRefOS:          "AssemblyRefOS",
	TableFile:                   "File",
	TableExportedType:           "ExportedType",
	TableManifestResource:       "ManifestResource",
	TableNestedClass:            "NestedClass",
	TableGenericParam:           "GenericParam",
	TableMethodSpec:             "MethodSpec",
	TableGenericParamConstraint: "GenericParamConstraint",
}

// TableName returns the ECMA-335 name for a table id, or "unknown" for
// ids outside the supported subset.
func TableName(id uint8) string {
	if name, ok := tableNames[id]; ok {
		return name
	}
	return "unknown"
}
