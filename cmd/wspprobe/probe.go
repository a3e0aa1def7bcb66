package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/snowmerak/provider.go/lib/module"
	"github.com/snowmerak/provider.go/lib/provider"
)

// entry is one capability table row in a report.
type entry struct {
	Op   provider.Operation
	Proc uintptr
}

// result is the outcome of probing one module.
type result struct {
	Descriptor  string
	Path        string
	Fingerprint string

	Version     provider.Version
	HighVersion provider.Version
	Description string
	Entries     []entry

	Err error
}

// probe opens the module, records what it reports and closes it again.
func probe(descriptor string, info provider.ProtocolDescriptor, opts *provider.Options) result {
	res := result{Descriptor: descriptor}

	if path, err := module.ExpandPath(descriptor, opts.LookupEnv); err == nil {
		res.Path = path
		res.Fingerprint = fingerprint(path)
	}

	d, err := provider.Open(descriptor, info, opts)
	if err != nil {
		res.Err = err
		return res
	}
	defer d.Close()

	data := d.Data()
	res.Version = data.Version
	res.HighVersion = data.HighVersion
	res.Description = data.Description()

	d.Table().Each(func(op provider.Operation, proc uintptr) bool {
		res.Entries = append(res.Entries, entry{Op: op, Proc: proc})
		return true
	})
	return res
}

// fingerprint returns the hex BLAKE2b-256 digest of the file at path, or "" if it cannot be read.
func fingerprint(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return ""
	}
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

// probeAll probes every path with at most jobs probes in flight.
// Each delegate is opened, used and closed by a single goroutine.
func probeAll(ctx context.Context, paths []string, info provider.ProtocolDescriptor, opts *provider.Options, jobs int) ([]result, error) {
	results := make([]result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = probe(path, info, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("probe interrupted: %w", err)
	}
	return results, nil
}
