// Package gate decides, per series, whether proposed parameters are
// committed as-is or confirmed by the operator first.
package gate

import (
	"context"
	"fmt"

	"github.com/san-kum/chapkde/internal/density"
	"github.com/san-kum/chapkde/internal/manifest"
	"github.com/san-kum/chapkde/internal/params"
)

type State int

const (
	Proposed State = iota
	Committed
)

func (s State) String() string {
	if s == Committed {
		return "committed"
	}
	return "proposed"
}

// Prompt is what the operator is asked about.
type Prompt struct {
	Series    string
	Proposed  params.Parameters
	ParamFile string
}

// Prompter asks the operator whether to proceed.
type Prompter interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// Source re-reads parameters after the operator had a chance to edit them.
type Source interface {
	ReadBack(series string) (params.Parameters, error)
	AggregatePath() string
}

// Decision is the outcome of resolving one series.
type Decision struct {
	State  State
	Params params.Parameters
	// Edited reports whether the committed parameters differ from the proposal.
	Edited bool
}

type Gate struct {
	mode     manifest.Mode
	prompter Prompter
	source   Source
}

func New(mode manifest.Mode, prompter Prompter, source Source) *Gate {
	return &Gate{mode: mode, prompter: prompter, source: source}
}

func (g *Gate) Mode() manifest.Mode {
	return g.mode
}

// Resolve moves proposed parameters to the committed state. Full mode
// commits the proposal directly. Semi and legacy modes ask the prompter;
// a "no" returns density.ErrUserAbort, a "yes" commits whatever the
// parameter source now holds for the series.
func (g *Gate) Resolve(ctx context.Context, series string, proposed params.Parameters) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{State: Proposed, Params: proposed}, err
	}

	if g.mode == manifest.ModeFull {
		return Decision{State: Committed, Params: proposed}, nil
	}
	if g.prompter == nil {
		return Decision{State: Proposed, Params: proposed}, fmt.Errorf("mode %s needs a prompter: %w", g.mode, density.ErrMissingDependency)
	}

	ok, err := g.prompter.Confirm(ctx, Prompt{
		Series:    series,
		Proposed:  proposed,
		ParamFile: g.source.AggregatePath(),
	})
	if err != nil {
		return Decision{State: Proposed, Params: proposed}, err
	}
	if !ok {
		return Decision{State: Proposed, Params: proposed}, density.ErrUserAbort
	}

	committed, err := g.source.ReadBack(series)
	if err != nil {
		return Decision{State: Proposed, Params: proposed}, err
	}
	return Decision{State: Committed, Params: committed, Edited: committed != proposed}, nil
}
