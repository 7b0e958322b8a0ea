// Package pe parses the native executable container around a managed image.
//
// It decodes just enough of the PE format to hand the metadata pipeline what
// it needs: the raw file bytes, the section table, the file alignment, and
// the CLR runtime data directory. It is not a general-purpose PE library;
// imports, exports, relocations and resources are out of scope.
//
// Parse an image from raw bytes:
//
//	img, err := pe.Parse(data)
//	if err != nil {
//	    return err
//	}
//	dir, ok := img.CLRDirectory()
//	if !ok {
//	    return fmt.Errorf("not a managed image")
//	}
//
// All reads are bounds-checked; the input is treated as adversarial.
package pe
