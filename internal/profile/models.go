package profile

import "time"

// Profile holds the demographic attributes eligibility matching runs against.
// Optional numeric attributes are pointers: a nil value means "not provided",
// which fails any numeric criterion that needs it (fail-closed), while zero is
// a real answer (e.g. no annual income).
type Profile struct {
	UserID            string    `db:"user_id" json:"userId"`
	Name              string    `db:"name" json:"name"`
	Contact           string    `db:"contact" json:"contact"`
	Age               *int      `db:"age" json:"age,omitempty"`
	Sex               string    `db:"sex" json:"sex,omitempty"`
	MaritalStatus     string    `db:"marital_status" json:"maritalStatus,omitempty"`
	Location          string    `db:"location" json:"location,omitempty"`
	FamilySize        *int      `db:"family_size" json:"familySize,omitempty"`
	AnnualIncome      *int64    `db:"annual_income" json:"annualIncome,omitempty"`
	ResidenceType     string    `db:"residence_type" json:"residenceType,omitempty"`
	SocialCategory    string    `db:"social_category" json:"socialCategory,omitempty"`
	IsDisabled        bool      `db:"is_disabled" json:"isDisabled"`
	DisabilityPercent *int      `db:"disability_percent" json:"disabilityPercent,omitempty"`
	IsMinority        bool      `db:"is_minority" json:"isMinority"`
	IsStudent         bool      `db:"is_student" json:"isStudent"`
	EmploymentStatus  string    `db:"employment_status" json:"employmentStatus,omitempty"`
	IsGovtEmployee    bool      `db:"is_govt_employee" json:"isGovtEmployee"`
	LandSizeAcres     *float64  `db:"land_size_acres" json:"landSizeAcres,omitempty"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// UpdateRequest is the PUT /api/profile body. Every field is optional; the
// update replaces the stored profile wholesale (the client always sends the
// full form), so absent fields clear their stored values.
type UpdateRequest struct {
	Name              string   `json:"name" validate:"required,max=200"`
	Contact           string   `json:"contact" validate:"omitempty,max=100"`
	Age               *int     `json:"age" validate:"omitempty,gte=0,lte=120"`
	Sex               string   `json:"sex" validate:"omitempty,oneof=male female other"`
	MaritalStatus     string   `json:"maritalStatus" validate:"omitempty,max=50"`
	Location          string   `json:"location" validate:"omitempty,max=100"`
	FamilySize        *int     `json:"familySize" validate:"omitempty,gte=1,lte=50"`
	AnnualIncome      *int64   `json:"annualIncome" validate:"omitempty,gte=0"`
	ResidenceType     string   `json:"residenceType" validate:"omitempty,max=50"`
	SocialCategory    string   `json:"socialCategory" validate:"omitempty,max=50"`
	IsDisabled        bool     `json:"isDisabled"`
	DisabilityPercent *int     `json:"disabilityPercent" validate:"omitempty,gte=0,lte=100"`
	IsMinority        bool     `json:"isMinority"`
	IsStudent         bool     `json:"isStudent"`
	EmploymentStatus  string   `json:"employmentStatus" validate:"omitempty,max=50"`
	IsGovtEmployee    bool     `json:"isGovtEmployee"`
	LandSizeAcres     *float64 `json:"landSizeAcres" validate:"omitempty,gte=0"`
}
