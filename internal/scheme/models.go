package scheme

// Status marks whether a scheme still accepts applications.
type Status string

const (
	StatusActive Status = "Active"
	StatusClosed Status = "Closed"
)

// DeadlineOpen is the sentinel deadline for schemes without a closing date.
const DeadlineOpen = "Open"

// Scheme is an immutable catalog entry. The catalog is loaded once at process
// start and shared read-only across all requests.
type Scheme struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Category          string   `json:"category"`
	Benefit           string   `json:"benefit"`
	Criteria          Criteria `json:"criteria"`
	RequiredDocuments []string `json:"requiredDocuments"`
	Status            Status   `json:"status"`
	Deadline          string   `json:"deadline"`
	SuccessRate       int      `json:"successRate"`
}

// Open reports whether the scheme has no fixed deadline.
func (s Scheme) Open() bool {
	return s.Deadline == DeadlineOpen
}

// AcceptsApplications reports whether new applications are allowed.
func (s Scheme) AcceptsApplications() bool {
	return s.Status == StatusActive
}
