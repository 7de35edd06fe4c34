package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

// InteractiveApprover implements the Approver interface for console-based
// interactive confirmation. It prompts the user to type the schema name to
// confirm the destructive table reset.
type InteractiveApprover struct {
	verbose bool
	input   io.Reader
	output  io.Writer
}

// NewInteractiveApprover creates a new InteractiveApprover reading from
// stdin and writing to stderr.
func NewInteractiveApprover(verbose bool) sprintload.Approver {
	return &InteractiveApprover{
		verbose: verbose,
		input:   os.Stdin,
		output:  os.Stderr,
	}
}

// RequestApproval prompts the user to type the schema name to confirm.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, schema string) (bool, error) {
	fmt.Fprintf(a.output, "\n⚠️  WARNING: You are about to DROP and RECREATE all sprint tables in schema '%s'\n", schema)
	fmt.Fprintln(a.output, "This will permanently delete all previously loaded data in these tables!")
	fmt.Fprintf(a.output, "\nTo confirm, type the schema name '%s' and press Enter: ", schema)

	// Read user input with context cancellation support
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == schema {
			fmt.Fprintln(a.output, "✓ Confirmed. Proceeding with table reset...")
			return true, nil
		}
		fmt.Fprintf(a.output, "✗ Input '%s' does not match schema name '%s'. Operation cancelled.\n", input, schema)
		return false, nil
	}
}

// Verify InteractiveApprover implements the Approver interface at compile time
var _ sprintload.Approver = (*InteractiveApprover)(nil)
