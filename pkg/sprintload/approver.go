package sprintload

import "context"

// Approver handles user interaction for approval workflows,
// particularly for the destructive table reset that precedes every load.
//
// Implementations:
//   - ForcedApprover: Shows countdown and automatically approves
//   - InteractiveApprover: Prompts user to type the schema name for confirmation
type Approver interface {
	// RequestApproval prompts for confirmation before dropping and recreating
	// the sprint tables in the named schema.
	//
	// Returns:
	//   - bool: true if approved, false if denied
	//   - error: Any error that occurred during the approval process
	RequestApproval(ctx context.Context, schema string) (bool, error)
}
