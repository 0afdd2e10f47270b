package domain

import "github.com/yungbote/survey-backend/internal/domain/survey"

// Models lists every gorm model migrated at boot.
func Models() []interface{} {
	return []interface{}{
		&survey.Record{},
	}
}
