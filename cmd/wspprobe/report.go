package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/snowmerak/provider.go/lib/provider"
)

// writeReport prints results in the given format and returns how many probes failed.
func writeReport(w io.Writer, results []result, format string) int {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
		if format == outputCompact {
			writeCompact(w, res)
		} else {
			writeTable(w, res)
		}
	}
	return failed
}

func writeCompact(w io.Writer, res result) {
	if res.Err != nil {
		fmt.Fprintf(w, "FAIL %s code=%d (%v) %v\n", res.Descriptor, int32(provider.CodeOf(res.Err)), provider.CodeOf(res.Err), res.Err)
		return
	}
	fmt.Fprintf(w, "OK   %s version=%s high=%s entries=%d", res.Path, res.Version, res.HighVersion, len(res.Entries))
	if res.Fingerprint != "" {
		fmt.Fprintf(w, " blake2b=%s", res.Fingerprint)
	}
	fmt.Fprintln(w)
}

func writeTable(w io.Writer, res result) {
	fmt.Fprintf(w, "%s\n", res.Descriptor)
	if res.Path != "" && res.Path != res.Descriptor {
		fmt.Fprintf(w, "  path:        %s\n", res.Path)
	}
	if res.Fingerprint != "" {
		fmt.Fprintf(w, "  blake2b:     %s\n", res.Fingerprint)
	}
	if res.Err != nil {
		code := provider.CodeOf(res.Err)
		fmt.Fprintf(w, "  status:      %v (%d)\n", code, int32(code))
		fmt.Fprintf(w, "  error:       %v\n\n", res.Err)
		return
	}

	fmt.Fprintf(w, "  version:     %s (high %s)\n", res.Version, res.HighVersion)
	if res.Description != "" {
		fmt.Fprintf(w, "  description: %s\n", res.Description)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range res.Entries {
		fmt.Fprintf(tw, "  %s\t%#x\n", e.Op, e.Proc)
	}
	tw.Flush()
	fmt.Fprintln(w)
}
