package main

import (
	"fmt"
	"strings"
)

// DiscoveryReport summarizes a lowering pass for -verbose mode: what each
// output file contains and what was diagnosed along the way.
func DiscoveryReport(result *Result) string {
	var report strings.Builder

	for _, file := range result.Files {
		fmt.Fprintf(&report, "%s:\n", FilePath(file.Package))
		for _, d := range file.Decls {
			switch decl := d.(type) {
			case *ServiceDecl:
				fmt.Fprintf(&report, "  service %-30s %d methods\n", decl.Name, len(decl.Methods))
			case *MessageDecl:
				fmt.Fprintf(&report, "  message %-30s %d fields\n", decl.Name, len(flattenFields(decl)))
			case *EnumDecl:
				fmt.Fprintf(&report, "  enum    %-30s %d values\n", decl.Name, len(decl.Values))
			}
		}
	}

	if len(result.Diagnostics) > 0 {
		errs := 0
		for _, d := range result.Diagnostics {
			if d.Severity == SeverityError {
				errs++
			}
		}
		fmt.Fprintf(&report, "diagnostics: %d (%d errors, %d warnings)\n",
			len(result.Diagnostics), errs, len(result.Diagnostics)-errs)
	}

	return report.String()
}
