package stats

import (
	"fmt"
	"io"

	"github.com/gyaneshwarpardhi/boa/internal/diagram"
)

const rule = "--------------------------------------------------------\n"

// printer remembers the first write error so reports read top to bottom.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// WriteGeneration writes the per-generation block of the log.
func WriteGeneration(w io.Writer, s Generation, optimumKnown bool) error {
	p := &printer{w: w}
	p.printf(rule)
	p.printf("Generation                   : %d\n", s.Generation)
	p.printf("Fitness evaluations          : %d\n", s.FitnessCalls)
	p.printf("Fitness (max/avg/min)        : (%f %f %f)\n", s.Max, s.Avg, s.Min)
	if optimumKnown {
		p.printf("Percentage of optima in pop. : %1.2f\n", s.OptimalPercent)
	}
	p.printf("Population bias              : %s\n", s.Guidance)
	p.printf("Best solution in the pop.    : %s\n", s.Best)
	return p.err
}

// WriteFitness writes one line of the fitness trace.
func WriteFitness(w io.Writer, s Generation) error {
	_, err := fmt.Fprintf(w, "%3d %7d %10f %10f %10f\n", s.Generation, s.FitnessCalls, s.Max, s.Avg, s.Min)
	return err
}

// WriteFinal writes the closing summary of a run.
func WriteFinal(w io.Writer, reason string, s Generation, optimumKnown bool) error {
	p := &printer{w: w}
	p.printf("\n=================================================================\n")
	p.printf("FINAL STATISTICS\n")
	p.printf("Termination reason           : %s\n", reason)
	p.printf("Generations performed        : %d\n", s.Generation)
	p.printf("Fitness evaluations          : %d\n", s.FitnessCalls)
	p.printf("Fitness (max/avg/min)        : (%f %f %f)\n", s.Max, s.Avg, s.Min)
	if optimumKnown {
		p.printf("Percentage of optima in pop. : %1.2f\n", s.OptimalPercent)
	}
	p.printf("Population bias              : %s\n", s.Guidance)
	p.printf("Best solution in the pop.    : %s\n", s.Best)
	p.printf("\nThe End.\n")
	return p.err
}

// ModelShift is the indentation of each diagram in the model report.
const ModelShift = 5

// WriteModel writes the diagrams learned in generation gen.
func WriteModel(w io.Writer, gen int, ds []*diagram.Diagram) error {
	p := &printer{w: w}
	p.printf(rule)
	p.printf("Generation: %3d\n\n", gen)
	for i, d := range ds {
		p.printf("%3d:\n", i)
		if p.err != nil {
			return p.err
		}
		if err := d.Print(w, ModelShift); err != nil {
			return err
		}
	}
	return p.err
}
