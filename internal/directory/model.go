package directory

import "errors"

// ErrDoctorNotFound is returned when no doctor row matches an id.
var ErrDoctorNotFound = errors.New("doctor not found")

// Doctor mirrors a row of the doctors table. JSON tags follow the column
// names so tool results look like the rows the assistant was trained on.
type Doctor struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	Specialization       string            `json:"specialization"`
	Qualifications       []string          `json:"qualifications"`
	Experience           int               `json:"experience"`
	Hospital             string            `json:"hospital"`
	ConsultationFee      float64           `json:"consultation_fee"`
	Languages            []string          `json:"languages"`
	ContactEmail         string            `json:"contact_email"`
	Bio                  string            `json:"bio"`
	AvailabilitySchedule map[string]string `json:"availability_schedule"`
	RealtimeStatus       string            `json:"realtime_status"`
	AverageRating        float64           `json:"average_rating"`
	ReviewsCount         int               `json:"reviews_count"`
	ProfilePhotoURL      string            `json:"profile_photo_url"`
	Location             string            `json:"location"`
	Gender               string            `json:"gender"`
}

// Treatment mirrors a row of the treatments table.
type Treatment struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Specialization string   `json:"specialization"`
	Description    string   `json:"description"`
	CommonSymptoms []string `json:"common_symptoms"`
	Duration       string   `json:"duration"`
	CostRange      string   `json:"cost_range"`
}

// DoctorFilter narrows doctor lookups. Empty fields are ignored; set fields
// are matched as case-insensitive substrings and combined with AND.
type DoctorFilter struct {
	Specialization string
	Name           string
}

// TreatmentFilter narrows treatment lookups with the same semantics as
// DoctorFilter.
type TreatmentFilter struct {
	Name           string
	Specialization string
}
