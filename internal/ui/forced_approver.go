package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

// ForcedApprover implements the Approver interface for non-interactive
// approval. It displays a warning with a countdown before automatically
// approving the table reset.
type ForcedApprover struct {
	verbose bool
	output  io.Writer
	sleepFn func(time.Duration)
}

// NewForcedApprover creates a new ForcedApprover writing to stderr.
func NewForcedApprover(verbose bool) sprintload.Approver {
	return &ForcedApprover{
		verbose: verbose,
		output:  os.Stderr,
		sleepFn: time.Sleep,
	}
}

// RequestApproval displays a countdown warning, then approves automatically.
func (a *ForcedApprover) RequestApproval(ctx context.Context, schema string) (bool, error) {
	fmt.Fprintf(a.output, "\n⚠️  WARNING: About to DROP and RECREATE all sprint tables in schema '%s'\n", schema)
	fmt.Fprintln(a.output, "This will permanently delete all previously loaded data in these tables!")
	fmt.Fprintln(a.output, "Running in forced mode (--force flag detected)")

	countdown := int(sprintload.DefaultForceApprovalCountdown.Seconds())
	for i := countdown; i > 0; i-- {
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.output, "\nOperation cancelled")
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rProceeding in %d seconds... (Ctrl+C to cancel)", i)
			a.sleepFn(1 * time.Second)
		}
	}

	fmt.Fprintln(a.output, "\n✓ Proceeding with table reset...")
	return true, nil
}

// Verify ForcedApprover implements the Approver interface at compile time
var _ sprintload.Approver = (*ForcedApprover)(nil)
