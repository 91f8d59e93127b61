package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/storeport/migrator/internal/domain/migration"
)

// PlanPresenter renders the normalized plan for one entity kind and obtains
// one explicit proceed/abort decision for the whole batch. When the run is
// non-interactive, a caller-supplied default policy decides the gate and is
// stated explicitly in the logs; approval is never silently assumed.
type PlanPresenter struct {
	out         io.Writer
	in          *bufio.Reader
	interactive bool
	autoApprove bool
	logger      *zap.Logger
}

// NewPlanPresenter creates an interactive presenter reading decisions from
// the given input.
func NewPlanPresenter(out io.Writer, in io.Reader, logger *zap.Logger) *PlanPresenter {
	return &PlanPresenter{
		out:         out,
		in:          bufio.NewReader(in),
		interactive: true,
		logger:      logger,
	}
}

// NewPolicyPresenter creates a non-interactive presenter that decides every
// gate with the given policy.
func NewPolicyPresenter(out io.Writer, autoApprove bool, logger *zap.Logger) *PlanPresenter {
	return &PlanPresenter{
		out:         out,
		autoApprove: autoApprove,
		logger:      logger,
	}
}

// Present renders one ordered line per planned item and returns whether the
// batch may proceed.
func (p *PlanPresenter) Present(kind migration.EntityKind, header []string, rows [][]string) (bool, error) {
	fmt.Fprintf(p.out, "\nPlanned %s records (%d):\n", kind, len(rows))

	w := tabwriter.NewWriter(p.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return false, fmt.Errorf("render plan: %w", err)
	}

	if !p.interactive {
		p.logger.Info("Non-interactive confirmation policy applied",
			zap.String("kind", string(kind)),
			zap.Bool("auto_approve", p.autoApprove))
		return p.autoApprove, nil
	}

	fmt.Fprintf(p.out, "\nCreate %d %s record(s) on the target? [y/N]: ", len(rows), kind)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	approved := answer == "y" || answer == "yes"
	p.logger.Info("Confirmation gate decided",
		zap.String("kind", string(kind)),
		zap.Bool("approved", approved))
	return approved, nil
}

// Summary renders the end-of-run aggregate per entity kind, naming every
// per-item failure. Nothing that was not migrated goes unreported.
func (p *PlanPresenter) Summary(outcomes []*migration.Outcome, drops map[migration.EntityKind][]migration.Drop) error {
	fmt.Fprintf(p.out, "\nMigration summary:\n")
	w := tabwriter.NewWriter(p.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tATTEMPTED\tSUCCEEDED\tFAILED\tDROPPED")
	for _, outcome := range outcomes {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n",
			outcome.Kind, outcome.Attempted, outcome.Succeeded, outcome.Failed,
			len(drops[outcome.Kind]))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	for _, outcome := range outcomes {
		for _, failure := range outcome.Failures {
			fmt.Fprintf(p.out, "  failed %s %s: %s\n", outcome.Kind, failure.ItemID, failure.Message)
		}
		for _, drop := range drops[outcome.Kind] {
			fmt.Fprintf(p.out, "  dropped %s %s: %s\n", outcome.Kind, drop.ItemID, drop.Reason)
		}
	}
	return nil
}
