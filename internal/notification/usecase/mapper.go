package usecase

import (
	"fmt"

	"github.com/shandysiswandi/gonotify/internal/notification/entity"
)

type template struct {
	title   string
	message string
}

var subjectTemplates = map[entity.Type]template{
	entity.TypeTaskCreated:   {"Task Created", "Your task '%s' has been created successfully."},
	entity.TypeTaskUpdated:   {"Task Updated", "Your task '%s' has been updated."},
	entity.TypeTaskAssigned:  {"Task Assigned", "Your task '%s' has been assigned to someone."},
	entity.TypeTaskCompleted: {"Task Completed", "Your task '%s' has been marked as completed."},
	entity.TypeTaskDeleted:   {"Task Deleted", "Your task '%s' has been deleted."},
	entity.TypeTaskDueSoon:   {"Task Due Soon", "Your task '%s' is due soon. Please complete it on time."},
}

var assigneeTemplates = map[entity.Type]template{
	entity.TypeTaskAssigned: {"New Task Assigned", "You have been assigned to task '%s'. Please check the details and start working on it."},
	entity.TypeTaskUpdated:  {"Assigned Task Updated", "The task '%s' assigned to you has been updated. Please review the changes."},
	entity.TypeTaskDueSoon:  {"Assigned Task Due Soon", "The task '%s' assigned to you is due soon. Please complete it on time."},
}

var (
	subjectFallback  = template{"Task Notification", "There's an update on your task '%s'."}
	assigneeFallback = template{"Task Assignment Notification", "There's an update on the task '%s' assigned to you."}
)

// MapEvent derives the notifications a task event produces: one for the
// subject and, when a different user is assigned, one for the assignee.
// Unknown event types produce nothing.
func MapEvent(ev entity.TaskEvent) []entity.Draft {
	typ := entity.TypeFromString(ev.EventType)
	if !typ.Valid() || ev.SubjectUserID <= 0 {
		return nil
	}

	drafts := []entity.Draft{
		draftFor(ev, typ, entity.RoleSubject, ev.SubjectUserID, subjectTemplates, subjectFallback, "your task"),
	}

	if ev.AssigneeUserID != nil && *ev.AssigneeUserID > 0 && *ev.AssigneeUserID != ev.SubjectUserID {
		drafts = append(drafts,
			draftFor(ev, typ, entity.RoleAssignee, *ev.AssigneeUserID, assigneeTemplates, assigneeFallback, "a task"))
	}

	return drafts
}

func draftFor(
	ev entity.TaskEvent,
	typ entity.Type,
	role entity.Role,
	userID int64,
	templates map[entity.Type]template,
	fallback template,
	noun string,
) entity.Draft {
	tpl, ok := templates[typ]
	if !ok {
		tpl = fallback
	}

	title := noun
	if ev.TaskTitle != nil {
		title = *ev.TaskTitle
	}

	return entity.Draft{
		UserID:  userID,
		Title:   tpl.title,
		Message: fmt.Sprintf(tpl.message, title),
		Type:    typ,
		TaskID:  ev.TaskID,
		Role:    role,
	}
}
