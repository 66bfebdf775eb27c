package dto

import (
	"parking/shared/constant"
	"parking/shared/model"
	"parking/shared/timezone"
	"time"
)

// Metadata renders the audit block in the application timezone.
type Metadata struct {
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
	CreatedBy  string `json:"created_by"`
	ModifiedBy string `json:"modified_by"`
}

func (m *Metadata) FromModel(model model.Metadata) {
	m.CreatedAt = formatInstant(model.CreatedAt)
	m.ModifiedAt = formatInstant(model.ModifiedAt)
	m.CreatedBy = model.CreatedBy
	m.ModifiedBy = model.ModifiedBy
}

// formatInstant leaves unset instants empty instead of rendering year one.
func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return timezone.Format(t, constant.DateFormat)
}
