package bitecase

import "time"

// Case is the read collaborator view of a bite case record. Intake owns
// the full record; this service only reads patient identity fields and
// maintains the denormalized schedule date cache.
type Case struct {
	ID                 string
	PatientID          string
	RegistrationNumber string
	FirstName          string
	MiddleName         string
	LastName           string
	Center             string
	ScheduleDates      []string
	Status             string
	UpdatedAt          time.Time
}

// DisplayName joins the name parts, skipping blanks.
func (c *Case) DisplayName() string {
	return joinName(c.FirstName, c.MiddleName, c.LastName)
}

func joinName(parts ...string) string {
	name := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += p
	}
	return name
}
