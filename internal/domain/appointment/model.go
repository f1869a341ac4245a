package appointment

import (
	"fmt"
	"time"

	"github.com/clinic/clinic/internal/domain/office"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/platform/apperr"
)

// Bounds of the association set.
const (
	MinPatients = 1
	MaxPatients = 3
)

// Fields are the scalar columns of an appointment. DateTime keeps the UTC
// offset the caller sent.
type Fields struct {
	OfficeID int64     `json:"office_id"`
	DateTime time.Time `json:"date_time"`
	Reason   *string   `json:"reason"`
}

type Appointment struct {
	ID int64 `json:"id"`
	Fields
}

// Detail is an appointment with its office and full patient records. Office
// is nil and Patients may be short when stored references dangle.
type Detail struct {
	Appointment
	Office   *office.Office     `json:"office"`
	Patients []*patient.Patient `json:"patients"`
}

// Summary is a list row: office name inlined, patient names only.
type Summary struct {
	ID         int64     `json:"id"`
	OfficeID   int64     `json:"office_id"`
	DateTime   time.Time `json:"date_time"`
	Reason     *string   `json:"reason"`
	OfficeName *string   `json:"office_name"`
	Patients   []string  `json:"patients"`
}

// Date is a calendar day without a zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate reads a YYYY-MM-DD day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, apperr.Invalid("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

type ListFilter struct {
	Date *Date
}

// checkCardinality rejects a patient id set that is missing, outside
// [MinPatients, MaxPatients] or not distinct.
func checkCardinality(ids []int64) error {
	if ids == nil || len(ids) < MinPatients || len(ids) > MaxPatients {
		return apperr.ErrInvalidAssociationCardinality
	}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return apperr.ErrInvalidAssociationCardinality
		}
		seen[id] = struct{}{}
	}
	return nil
}

func offsetMinutes(t time.Time) int {
	_, off := t.Zone()
	return off / 60
}

func withOffset(t time.Time, minutes int) time.Time {
	return t.In(time.FixedZone("", minutes*60))
}
