package main

// config.go - probe configuration.
//
// Precedence order (highest wins):
//   1. CLI flags
//   2. Environment variables (WSPPROBE_*)
//   3. Defaults

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/snowmerak/provider.go/lib/provider"
)

const (
	outputAuto    = ""
	outputTable   = "table"
	outputCompact = "compact"

	defaultJobs = 4
)

// Config holds every tuneable for one probe run.
type Config struct {
	Paths []string

	DescriptorFile string
	DescriptorJSON string

	Jobs    int
	Output  string
	Verbose bool

	ShowVersion bool
	ShowHelp    bool
}

// defaultConfig returns the configuration before env and flags are applied.
func defaultConfig() *Config {
	return &Config{Jobs: defaultJobs, Output: outputAuto}
}

// loadFromEnv overlays WSPPROBE_* variables onto cfg. Empty variables are ignored.
func loadFromEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("WSPPROBE_DESCRIPTOR"); ok && v != "" {
		cfg.DescriptorFile = v
	}
	if v, ok := lookup("WSPPROBE_JOBS"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Jobs = n
		}
	}
	if v, ok := lookup("WSPPROBE_OUTPUT"); ok && v != "" {
		cfg.Output = strings.ToLower(v)
	}
	if v, ok := lookup("WSPPROBE_VERBOSE"); ok {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			cfg.Verbose = true
		}
	}
}

// newFlagSet binds flags onto cfg, keeping the values already in cfg as defaults.
func newFlagSet(cfg *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("wspprobe", flag.ContinueOnError)
	fs.SortFlags = false

	fs.StringVarP(&cfg.DescriptorFile, "descriptor", "d", cfg.DescriptorFile, "File holding the raw protocol descriptor")
	fs.StringVar(&cfg.DescriptorJSON, "descriptor-json", cfg.DescriptorJSON, "Protocol descriptor as a JSON object, sent protobuf-encoded")
	fs.IntVarP(&cfg.Jobs, "jobs", "j", cfg.Jobs, "Number of modules probed concurrently")
	fs.StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: table or compact (default: table on a terminal)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Trace module loading to stderr")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&cfg.ShowHelp, "help", "h", false, "Show this help")
	return fs
}

// parseConfig builds the configuration from env and args.
func parseConfig(args []string, lookup func(string) (string, bool)) (*Config, *flag.FlagSet, error) {
	cfg := defaultConfig()
	loadFromEnv(cfg, lookup)

	fs := newFlagSet(cfg)
	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	cfg.Paths = fs.Args()
	return cfg, fs, nil
}

// validate checks the configuration once flags are parsed.
func (c *Config) validate() error {
	if len(c.Paths) == 0 {
		return fmt.Errorf("no module paths given")
	}
	if c.Jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", c.Jobs)
	}
	switch c.Output {
	case outputAuto, outputTable, outputCompact:
	default:
		return fmt.Errorf("--output must be %q or %q, got %q", outputTable, outputCompact, c.Output)
	}
	if c.DescriptorFile != "" && c.DescriptorJSON != "" {
		return fmt.Errorf("--descriptor and --descriptor-json are mutually exclusive")
	}
	return nil
}

// descriptor loads the protocol descriptor the configuration names, if any.
func (c *Config) descriptor() (provider.ProtocolDescriptor, error) {
	switch {
	case c.DescriptorFile != "":
		b, err := os.ReadFile(c.DescriptorFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read descriptor: %w", err)
		}
		return provider.ProtocolDescriptor(b), nil

	case c.DescriptorJSON != "":
		msg := &structpb.Struct{}
		if err := protojson.Unmarshal([]byte(c.DescriptorJSON), msg); err != nil {
			return nil, fmt.Errorf("failed to parse descriptor JSON: %w", err)
		}
		return provider.DescriptorFromProto(msg)

	default:
		return nil, nil
	}
}
