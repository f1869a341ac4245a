package patient

import "strings"

// Patient identity is issued by an external system of record, so ID is
// always supplied by the caller.
type Patient struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

func (p *Patient) normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = blankToNil(p.Phone)
	p.Email = blankToNil(p.Email)
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
