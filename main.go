package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Options holds the configuration for one run.
type Options struct {
	OutDir          string
	Check           bool
	Diff            bool
	Verify          bool
	SkipVerify      bool
	ProtocPath      string
	ProtoPaths      []string
	GoPackagePrefix string
	DryRun          bool
	Verbose         bool
	Quiet           bool
	ConfigFile      string
}

func main() {
	opts := Options{}
	var protoPaths multiFlag

	flag.StringVar(&opts.OutDir, "o", "", "Write generated files under this directory")
	flag.StringVar(&opts.OutDir, "out", "", "Write generated files under this directory")
	flag.BoolVar(&opts.Check, "c", false, "Exit non-zero if generated files would change (for CI)")
	flag.BoolVar(&opts.Check, "check", false, "Exit non-zero if generated files would change (for CI)")
	flag.BoolVar(&opts.Diff, "d", false, "Print unified diff against existing output")
	flag.BoolVar(&opts.Diff, "diff", false, "Print unified diff against existing output")
	flag.BoolVar(&opts.Verify, "verify", false, "Run round-trip and protoc descriptor verification")
	flag.BoolVar(&opts.SkipVerify, "skip-verify", false, "Skip the protoc descriptor step of -verify")
	flag.StringVar(&opts.ProtocPath, "protoc", "", "Path to protoc binary")
	flag.Var(&protoPaths, "proto-path", "Additional proto include paths (repeatable)")
	flag.StringVar(&opts.GoPackagePrefix, "go-package-prefix", "", "Derive a go_package option from this import path prefix")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "Report what would be written without writing")
	flag.BoolVar(&opts.Verbose, "v", false, "Print per-file discovery report")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Print per-file discovery report")
	flag.BoolVar(&opts.Quiet, "q", false, "Suppress warnings")
	flag.BoolVar(&opts.Quiet, "quiet", false, "Suppress warnings")
	flag.StringVar(&opts.ConfigFile, "config", "", "Path to .protolower.toml config file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: protolower [OPTIONS] <SCHEMA.toml>...\n\n")
		fmt.Fprintf(os.Stderr, "Lower TOML schema definitions into proto3 files.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	opts.ProtoPaths = []string(protoPaths)

	// Track which flags were explicitly set on the command line
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	// Load .protolower.toml config if available
	configPath := opts.ConfigFile
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load config %s: %v\n", configPath, err)
		} else {
			MergeConfig(&opts, cfg, setFlags)
		}
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(4)
	}

	exitCode := 0
	for _, schema := range args {
		code := processSchema(schema, opts)
		if code > exitCode {
			exitCode = code
		}
	}

	os.Exit(exitCode)
}

func processSchema(schemaPath string, opts Options) int {
	root, bind, err := LoadSchema(schemaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s: %v\n", schemaPath, err)
		var schemaErr *SchemaError
		var parseErr *ParseError
		if errors.As(err, &schemaErr) || errors.As(err, &parseErr) {
			return 3
		}
		return 4
	}

	result, err := Lower(root, bind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s: %v\n", schemaPath, err)
		return 4
	}

	for _, d := range result.Diagnostics {
		if d.Severity == SeverityWarning && opts.Quiet {
			continue
		}
		fmt.Fprintf(os.Stderr, "%s: %s\n", schemaPath, d)
	}

	if opts.Verbose {
		fmt.Fprint(os.Stderr, DiscoveryReport(result))
	}

	// Error-severity diagnostics suppress all file output; the AST is
	// still complete for the report above.
	if result.HasErrors() {
		fmt.Fprintf(os.Stderr, "%s: output suppressed due to errors\n", schemaPath)
		return 3
	}

	exitCode := 0
	for _, file := range result.Files {
		applyGoPackage(file, opts.GoPackagePrefix)
		text := Emit(file)
		outPath := FilePath(file.Package)

		if opts.Verify {
			if err := Verify(file, text, opts); err != nil {
				fmt.Fprintf(os.Stderr, "error: %s: %s: %v\n", schemaPath, outPath, err)
				return 2
			}
		}

		code := writeOutput(schemaPath, outPath, text, opts)
		if code > exitCode {
			exitCode = code
		}
	}

	return exitCode
}

// writeOutput handles one generated file according to the output mode.
func writeOutput(schemaPath, outPath, text string, opts Options) int {
	if opts.OutDir == "" {
		// No output dir: print to stdout with a path marker.
		fmt.Printf("// %s\n%s", outPath, text)
		return 0
	}

	target := filepath.Join(opts.OutDir, outPath)
	existing, readErr := os.ReadFile(target)
	upToDate := readErr == nil && string(existing) == text

	if opts.Check {
		if upToDate {
			if !opts.Quiet {
				fmt.Fprintf(os.Stderr, "%s: up to date\n", target)
			}
			return 0
		}
		fmt.Fprintf(os.Stderr, "%s: would change\n", target)
		if opts.Diff {
			fmt.Print(DiffStrings(string(existing), text, target+" (existing)", target+" (generated)"))
		}
		return 1
	}

	if opts.DryRun {
		if upToDate {
			fmt.Fprintf(os.Stderr, "%s: up to date\n", target)
		} else {
			fmt.Fprintf(os.Stderr, "%s: would write\n", target)
			if opts.Diff {
				fmt.Print(DiffStrings(string(existing), text, target+" (existing)", target+" (generated)"))
			}
		}
		return 0
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", target, err)
		return 4
	}
	if err := os.WriteFile(target, []byte(text), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", target, err)
		return 4
	}
	if opts.Diff && !upToDate {
		fmt.Print(DiffStrings(string(existing), text, target+" (existing)", target+" (generated)"))
	}
	if !opts.Quiet {
		fmt.Fprintf(os.Stderr, "%s: wrote %s\n", schemaPath, target)
	}
	return 0
}

// applyGoPackage derives a go_package option from the configured prefix when
// the schema did not set one itself.
func applyGoPackage(file *File, prefix string) {
	if prefix == "" {
		return
	}
	if _, ok := file.Options["go_package"]; ok {
		return
	}
	if file.Options == nil {
		file.Options = OptionSet{}
	}
	if file.Package == "" {
		file.Options.SetString("go_package", prefix)
		return
	}
	file.Options.SetString("go_package", path.Join(prefix, strings.ReplaceAll(file.Package, ".", "/")))
}

// multiFlag implements flag.Value for repeatable string flags.
type multiFlag []string

func (f *multiFlag) String() string {
	return strings.Join(*f, ", ")
}

func (f *multiFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}
