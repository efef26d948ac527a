package entity

import "strings"

// Type is the kind of task change a notification reports.
type Type int16

const (
	TypeUnknown       Type = 0
	TypeTaskCreated   Type = 1
	TypeTaskUpdated   Type = 2
	TypeTaskAssigned  Type = 3
	TypeTaskCompleted Type = 4
	TypeTaskDeleted   Type = 5
	TypeTaskDueSoon   Type = 6
)

// Types lists every known notification type in declaration order.
var Types = []Type{
	TypeTaskCreated,
	TypeTaskUpdated,
	TypeTaskAssigned,
	TypeTaskCompleted,
	TypeTaskDeleted,
	TypeTaskDueSoon,
}

// TypeFromString parses the wire name of a type. Unrecognized names return TypeUnknown.
func TypeFromString(raw string) Type {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "TASK_CREATED":
		return TypeTaskCreated
	case "TASK_UPDATED":
		return TypeTaskUpdated
	case "TASK_ASSIGNED":
		return TypeTaskAssigned
	case "TASK_COMPLETED":
		return TypeTaskCompleted
	case "TASK_DELETED":
		return TypeTaskDeleted
	case "TASK_DUE_SOON":
		return TypeTaskDueSoon
	default:
		return TypeUnknown
	}
}

func (t Type) String() string {
	switch t {
	case TypeTaskCreated:
		return "TASK_CREATED"
	case TypeTaskUpdated:
		return "TASK_UPDATED"
	case TypeTaskAssigned:
		return "TASK_ASSIGNED"
	case TypeTaskCompleted:
		return "TASK_COMPLETED"
	case TypeTaskDeleted:
		return "TASK_DELETED"
	case TypeTaskDueSoon:
		return "TASK_DUE_SOON"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	return t >= TypeTaskCreated && t <= TypeTaskDueSoon
}
