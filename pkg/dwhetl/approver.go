package dwhetl

import "context"

// Approver handles user confirmation before the drop stage destroys warehouse tables.
//
// Implementations:
//   - ForcedApprover: Shows countdown and automatically approves
//   - InteractiveApprover: Prompts user to type the database name for confirmation
type Approver interface {
	// RequestApproval prompts for confirmation before the managed tables are dropped.
	// tables lists what will be dropped so the prompt can show it.
	RequestApproval(ctx context.Context, dbName string, tables []string) (bool, error)
}
