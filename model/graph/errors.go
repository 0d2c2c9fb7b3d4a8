package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies graph validation failures.
type Kind string

// Graph error kinds.
const (
	KindCycle             Kind = "cycle"
	KindDanglingReference Kind = "danglingReference"
	KindDuplicate         Kind = "duplicate"
	KindInvalid           Kind = "invalid"
)

var (
	// ErrCycle is matched by errors.Is for every cycle error.
	ErrCycle = errors.New("graph: dependency cycle")
	// ErrDanglingReference is matched by errors.Is for unresolved or
	// self-referencing dependencies.
	ErrDanglingReference = errors.New("graph: dangling reference")
	// ErrDuplicate is matched by errors.Is for duplicated task ids.
	ErrDuplicate = errors.New("graph: duplicate task")
	// ErrInvalid is matched by errors.Is for malformed tasks.
	ErrInvalid = errors.New("graph: invalid task")
)

// Error describes why a mission's task set is not a valid DAG.
type Error struct {
	Kind      Kind
	MissionID string
	TaskID    string
	// Ref is the unresolved dependency id for dangling references.
	Ref string
	// Path lists task ids forming a cycle, first id repeated at the end.
	Path []string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindCycle:
		return fmt.Sprintf("mission %s: dependency cycle %s", e.MissionID, strings.Join(e.Path, " -> "))
	case KindDanglingReference:
		if e.Ref == e.TaskID {
			return fmt.Sprintf("mission %s: task %s depends on itself", e.MissionID, e.TaskID)
		}
		return fmt.Sprintf("mission %s: task %s depends on unknown task %s", e.MissionID, e.TaskID, e.Ref)
	case KindDuplicate:
		return fmt.Sprintf("mission %s: duplicate task id %s", e.MissionID, e.TaskID)
	default:
		return fmt.Sprintf("mission %s: invalid task %q", e.MissionID, e.TaskID)
	}
}

// Is matches the kind sentinel.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrCycle:
		return e.Kind == KindCycle
	case ErrDanglingReference:
		return e.Kind == KindDanglingReference
	case ErrDuplicate:
		return e.Kind == KindDuplicate
	case ErrInvalid:
		return e.Kind == KindInvalid
	}
	return false
}
