// Package compiler wires the lexer, entity parser, virtual machine,
// and codec into the single front-to-back compile operation described
// in spec §2's dataflow: bytes -> lexer -> tokens -> entity parser ->
// VM calls -> event buffer -> codec -> bytes.
package compiler

import (
	"github.com/canidlogic/noirc/internal/compileerr"
	"github.com/canidlogic/noirc/internal/entity"
	"github.com/canidlogic/noirc/internal/event"
	"github.com/canidlogic/noirc/internal/lexer"
	"github.com/canidlogic/noirc/internal/nmf"
	"github.com/canidlogic/noirc/internal/vm"
	"github.com/rs/zerolog"
)

// Compile reads Noir source from src and returns the resulting score
// data, or the first compile error encountered. log receives
// diagnostic progress events; pass zerolog.Nop() to silence them.
func Compile(src []byte, basis nmf.Basis, log zerolog.Logger) (*nmf.Data, *compileerr.Error) {
	log.Debug().Int("bytes", len(src)).Msg("lexing source")

	lx, err := lexer.New(src)
	if err != nil {
		return nil, err
	}

	buf := event.NewBuffer()
	machine := vm.New(buf)

	if err := entity.Run(lx, machine); err != nil {
		log.Debug().Err(err).Msg("compile failed")
		return nil, err
	}

	log.Debug().
		Int("sections", buf.SectionCount()).
		Int("notes", buf.NoteCount()).
		Msg("compile finished")

	if buf.NoteCount() == 0 {
		return nil, compileerr.New(compileerr.Empty, 0)
	}

	data := nmf.FromBuffer(basis, buf)
	data.Sort()
	return data, nil
}
