package usecase

import (
	"github.com/shandysiswandi/gonotify/internal/notification/entity"
	"github.com/shandysiswandi/gonotify/internal/pkg/validator"
)

// ValidationRules are the custom rules the notification inputs rely on.
func ValidationRules() []validator.Rule {
	return []validator.Rule{
		{
			Tag:     "notification_type",
			Message: "{0} must be a valid notification type",
			Valid:   func(s string) bool { return entity.TypeFromString(s).Valid() },
		},
	}
}
