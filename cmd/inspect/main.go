package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/clrview/clrview"
	"github.com/clrview/clrview/cil"
	"github.com/clrview/clrview/pe"
)

func main() {
	var (
		file        = flag.String("file", "", "Path to managed executable")
		verbose     = flag.Bool("v", false, "Enable decode tracing")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	// Allow the path as a bare positional argument too.
	if *file == "" && flag.NArg() == 1 {
		*file = flag.Arg(0)
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: inspect -file <executable> [-v]")
		fmt.Fprintln(os.Stderr, "       inspect -file <executable> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		cil.SetLogger(logger)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*file); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Stdout, *file); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	report, err := clrview.Inspect(data)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}

	printReport(w, file, report)
	return nil
}

func printReport(w io.Writer, file string, r *clrview.Report) {
	fmt.Fprintf(w, "File:        %s\n", file)
	fmt.Fprintf(w, "Size:        %d bytes\n", r.Size)
	fmt.Fprintf(w, "Fingerprint: xxh64:%016x\n", r.Fingerprint)
	fmt.Fprintf(w, "Machine:     %s (0x%04x)\n", pe.MachineName(r.Image.Machine), r.Image.Machine)
	fmt.Fprintf(w, "Image base:  0x%x\n", r.Image.ImageBase)
	fmt.Fprintf(w, "Sections:    %d\n", len(r.Image.Sections))
	for _, s := range r.Image.Sections {
		fmt.Fprintf(w, "  %-8s va=0x%08x vsize=0x%06x raw=0x%08x rawsize=0x%06x\n",
			s.Name, s.VirtualAddress, s.VirtualSize, s.RawPointer, s.RawSize)
	}

	fmt.Fprintf(w, "\nCLI header:\n")
	fmt.Fprintf(w, "  Runtime version:   %d.%d\n", r.CLI.MajorRuntimeVersion, r.CLI.MinorRuntimeVersion)
	fmt.Fprintf(w, "  Metadata:          rva=0x%08x size=%d\n", r.CLI.Metadata.VirtualAddress, r.CLI.Metadata.Size)
	fmt.Fprintf(w, "  Flags:             0x%08x\n", r.CLI.Flags)
	fmt.Fprintf(w, "  Entry point token: 0x%08x\n", r.CLI.EntryPointToken)
	if r.CLI.Resources.Present() {
		fmt.Fprintf(w, "  Resources:         rva=0x%08x size=%d\n", r.CLI.Resources.VirtualAddress, r.CLI.Resources.Size)
	}
	if r.CLI.StrongNameSignature.Present() {
		fmt.Fprintf(w, "  Strong name:       rva=0x%08x size=%d\n", r.CLI.StrongNameSignature.VirtualAddress, r.CLI.StrongNameSignature.Size)
	}

	fmt.Fprintf(w, "\nMetadata root:\n")
	fmt.Fprintf(w, "  Version: %s\n", r.Root.Version)
	fmt.Fprintf(w, "  Streams: %d\n", len(r.Root.Streams))
	for _, s := range r.Root.Streams {
		fmt.Fprintf(w, "    %-10s offset=0x%06x size=%d\n", s.Name, s.Offset, s.Size)
	}

	fmt.Fprintf(w, "\nTables (valid=0x%016x):\n", r.Tables.Valid)
	for _, c := range r.Tables.Counts {
		fmt.Fprintf(w, "  0x%02x %-22s %d rows\n", c.ID, cil.TableName(c.ID), c.Rows)
	}

	fmt.Fprintf(w, "\nMethods (%d):\n", len(r.Methods))
	for i, m := range r.Methods {
		fmt.Fprintf(w, "  %4d  rva=0x%08x flags=0x%04x  %s\n", i+1, m.RVA, m.Flags, m.Name)
	}

	fmt.Fprintf(w, "\nEntry point: %s\n", r.EntryPoint)
}
