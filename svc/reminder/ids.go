package reminder

import (
	"fmt"

	"github.com/google/uuid"
)

var idNamespace = uuid.MustParse("8f7c1a52-3d4e-4b0a-9e61-6f2d5c9a7b13")

func newID() string {
	return uuid.NewString()
}

// successorID is derived from the parent so a lineage can only ever hold
// one successor per firing, even when creation is retried.
func successorID(parentID string) string {
	return uuid.NewSHA1(idNamespace, []byte("successor:"+parentID)).String()
}

// goalReminderID makes goal generation repeatable for the same due date.
func goalReminderID(goalID string, dueUnix int64, daysBefore int) string {
	return uuid.NewSHA1(idNamespace, fmt.Appendf(nil, "goal:%s:%d:%d", goalID, dueUnix, daysBefore)).String()
}
