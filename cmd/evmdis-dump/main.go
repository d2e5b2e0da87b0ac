// Command evmdis-dump is a thin, non-mandated driver (spec.md §1
// Non-goals) exercising package program end-to-end: it reads hex-encoded
// bytecode from a file, runs program.Analyze, and prints the §6
// disassembly report. Mirrors the teacher's cmd/wasm-dump, adapted from
// stdlib flag to pflag per SPEC_FULL.md's DOMAIN STACK note (pflag is the
// flag package the rest of the retrieved pack's CLIs standardize on).
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/go-evm/evmdis/program"
	"github.com/go-evm/evmdis/selectors"
)

var (
	flagRegistry        = pflag.String("registry", "", "path to a known-method-selector registry file")
	flagColor           = pflag.Bool("color", false, "colorize report annotations")
	flagShowUnreachable = pflag.Bool("show-unreachable", false, "render unreachable unknown-opcode blocks as instructions instead of a hex dump")
	flagShowStackOps    = pflag.Bool("show-stack-ops", false, "include pure stack-manipulator instructions")
	flagMaxChildDepth   = pflag.Int("max-child-depth", 0, "bound on recursive child-contract analysis (0 = default)")
)

func main() {
	log.SetPrefix("evmdis-dump: ")
	log.SetFlags(0)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: evmdis-dump [options] file1.hex [file2.hex [...]]\n\noptions:\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() < 1 {
		pflag.Usage()
		os.Exit(1)
	}

	for i, fname := range pflag.Args() {
		if i > 0 {
			fmt.Println()
		}
		if err := process(os.Stdout, fname); err != nil {
			log.Fatalf("%s: %v", fname, err)
		}
	}
}

func process(w io.Writer, fname string) error {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return err
	}
	code, err := hex.DecodeString(string(bytes.TrimSpace(raw)))
	if err != nil {
		return fmt.Errorf("decoding hex bytecode: %w", err)
	}

	var registry *selectors.Registry
	if *flagRegistry != "" {
		registry, err = selectors.Load(*flagRegistry)
		if err != nil {
			return fmt.Errorf("loading selector registry: %w", err)
		}
	}

	p, err := program.Analyze(code, program.Config{
		MaxChildDepth: *flagMaxChildDepth,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %d bytes, valid=%v\n\n", fname, len(code), p.Valid())
	fmt.Fprint(w, p.Report(program.ReportOptions{
		Color:                 *flagColor,
		ShowUnreachable:       *flagShowUnreachable,
		ShowStackManipulators: *flagShowStackOps,
		Registry:              registry,
	}))
	for _, issue := range p.Issues() {
		fmt.Fprintf(w, "issue at offset %d: %s\n", issue.Offset, issue.Message)
	}
	for i, child := range p.CreatedContracts() {
		fmt.Fprintf(w, "\nchild contract %d (%d bytes):\n", i, len(child.Bytecode()))
		fmt.Fprint(w, child.Report(program.ReportOptions{Color: *flagColor}))
	}
	return nil
}
