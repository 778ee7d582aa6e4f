// Command nmfwalk is a minimal downstream consumer of the NMF codec:
// it opens a score file and prints its sections and notes using only
// the codec's public accessors (spec §6 "Downstream consumers").
package main

import (
	"fmt"
	"os"

	"github.com/canidlogic/noirc/internal/nmf"
	"github.com/spf13/cobra"
)

var basisNames = map[nmf.Basis]string{
	nmf.BasisQ96:    "q96",
	nmf.BasisR44100: "r44100",
	nmf.BasisR48000: "r48000",
}

func main() {
	var ordered bool

	cmd := &cobra.Command{
		Use:           "nmfwalk <path>",
		Short:         "Dump an NMF score's sections and notes",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return walk(args[0], ordered)
		},
	}
	cmd.Flags().BoolVar(&ordered, "enforce-order", false, "reject files whose notes are not in canonical order")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "nmfwalk: %s\n", err)
		os.Exit(1)
	}
}

func walk(path string, ordered bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	parse := nmf.Parse
	if ordered {
		parse = nmf.ParseOrdered
	}

	data, err := parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	fmt.Printf("basis: %s\n", basisNames[data.Basis()])
	fmt.Printf("sections: %d\n", data.SectionCount())
	for i := 0; i < data.SectionCount(); i++ {
		fmt.Printf("  section %d: offset %d\n", i, data.Offset(i))
	}

	fmt.Printf("notes: %d\n", data.NoteCount())
	for i := 0; i < data.NoteCount(); i++ {
		n := data.GetNote(i)
		if n.IsCue() {
			cue := n.Art<<16 | n.LayerI
			fmt.Printf("  t=%d cue=%d sect=%d\n", n.T, cue, n.Sect)
			continue
		}
		fmt.Printf("  t=%d dur=%d pitch=%d art=%d sect=%d layer=%d\n",
			n.T, n.Dur, n.Pitch, n.Art, n.Sect, n.LayerI+1)
	}
	return nil
}
