// Command wspprobe loads socket service provider modules, performs the startup handshake
// and reports each module's capability table.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/snowmerak/provider.go/lib/module"
	"github.com/snowmerak/provider.go/lib/provider"
)

// version is overridable at link time:
//
//	go build -ldflags "-X main.version=1.1.0"
var version = "1.0.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	env := environment{
		stdout: os.Stdout,
		stderr: os.Stderr,
		lookup: os.LookupEnv,
		opener: module.Native(),
		isTTY:  term.IsTerminal(int(os.Stdout.Fd())),
	}
	if err := run(ctx, os.Args[1:], env); err != nil {
		fmt.Fprintf(os.Stderr, "wspprobe: %v\n", err)
		os.Exit(1)
	}
}

// environment is what run needs from the process.
type environment struct {
	stdout io.Writer
	stderr io.Writer
	lookup func(string) (string, bool)
	opener module.Opener
	isTTY  bool
}

// run parses args and probes every module named on the command line.
func run(ctx context.Context, args []string, env environment) error {
	cfg, fs, err := parseConfig(args, env.lookup)
	if err != nil {
		return err
	}
	if cfg.ShowHelp {
		printUsage(env.stdout, fs)
		return nil
	}
	if cfg.ShowVersion {
		fmt.Fprintf(env.stdout, "wspprobe %s\n", version)
		return nil
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	info, err := cfg.descriptor()
	if err != nil {
		return err
	}

	opts := provider.DefaultOptions()
	opts.Opener = env.opener
	opts.LookupEnv = env.lookup
	if cfg.Verbose {
		opts.Logger = log.New(env.stderr, "wspprobe: ", log.Ltime|log.Lmicroseconds)
	}

	format := cfg.Output
	if format == outputAuto {
		format = outputCompact
		if env.isTTY {
			format = outputTable
		}
	}

	results, err := probeAll(ctx, cfg.Paths, info, opts, cfg.Jobs)
	if err != nil {
		return err
	}
	if failed := writeReport(env.stdout, results, format); failed > 0 {
		return fmt.Errorf("%d of %d modules failed", failed, len(results))
	}
	return nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: wspprobe [flags] MODULE_PATH...\n\n")
	fmt.Fprintf(w, "MODULE_PATH may contain %%NAME%% or ${NAME} environment markers.\n\n")
	fmt.Fprintf(w, "Flags:\n%s", fs.FlagUsages())
	fmt.Fprintf(w, "\nEnvironment: WSPPROBE_DESCRIPTOR, WSPPROBE_JOBS, WSPPROBE_OUTPUT, WSPPROBE_VERBOSE\n")
}
