package schedule

import "time"

// Update is a partial edit of a schedule. Only fields present in the
// maps are applied; everything else is left untouched. There is no
// treatment status field here on purpose: the aggregate is derived.
type Update struct {
	Dates    map[DoseLabel]time.Time
	Statuses map[DoseLabel]DoseStatus
}

// IsEmpty reports whether the update carries no fields at all.
func (u Update) IsEmpty() bool {
	return len(u.Dates) == 0 && len(u.Statuses) == 0
}
