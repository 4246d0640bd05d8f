package patient

import "context"

// Patient is the read collaborator view of a patient profile, used only
// as the second step of the reminder name cascade.
type Patient struct {
	ID         string
	FirstName  string
	MiddleName string
	LastName   string
}

// DisplayName joins the name parts, skipping blanks.
func (p *Patient) DisplayName() string {
	name := ""
	for _, part := range []string{p.FirstName, p.MiddleName, p.LastName} {
		if part == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += part
	}
	return name
}

// Repository provides read-only patient lookups.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Patient, error)
}
