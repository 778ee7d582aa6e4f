// Command noirc compiles Noir source read from stdin into an NMF
// score written to stdout (spec §6 "External interfaces").
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/canidlogic/noirc/internal/compileerr"
	"github.com/canidlogic/noirc/internal/compiler"
	"github.com/canidlogic/noirc/internal/nmf"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const moduleName = "noirc"

// errSilent marks a failure whose diagnostic was already written to
// stderr in the compiler's own format.
var errSilent = errors.New("noirc: silent")

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(compileerr.Fault); ok {
				fmt.Fprintf(os.Stderr, "%s: %s\n", moduleName, f.Error())
				code = 1
				return
			}
			panic(r)
		}
	}()

	var basisFlag string
	var verbose bool

	cmd := &cobra.Command{
		Use:           moduleName,
		Short:         "Compile Noir notation into an NMF score",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return compileStdinToStdout(basisFlag, verbose)
		},
	}
	cmd.Flags().StringVar(&basisFlag, "basis", "q96", "quantum basis: q96, r44100, or r48000")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "emit structured diagnostics to stderr")

	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", moduleName, err.Error())
		}
		return 1
	}
	return 0
}

func compileStdinToStdout(basisFlag string, verbose bool) error {
	basis, ok := parseBasis(basisFlag)
	if !ok {
		return fmt.Errorf("unknown basis %q", basisFlag)
	}

	level := zerolog.Disabled
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).
		Level(level).With().Timestamp().Logger()

	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		diag(compileerr.New(compileerr.IoRead, 0))
		return errSilent
	}

	data, cerr := compiler.Compile(src, basis, log)
	if cerr != nil {
		diag(cerr)
		return errSilent
	}

	if err := nmf.Serialize(data, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", moduleName, err)
		return errSilent
	}
	return nil
}

func diag(err *compileerr.Error) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", moduleName, err.Error())
}

func parseBasis(s string) (nmf.Basis, bool) {
	switch s {
	case "q96":
		return nmf.BasisQ96, true
	case "r44100":
		return nmf.BasisR44100, true
	case "r48000":
		return nmf.BasisR48000, true
	}
	return 0, false
}
