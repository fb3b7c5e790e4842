package scheme

import (
	"encoding/json"
	"fmt"

	"seva/internal/profile"
)

// Eligibility criteria vary per scheme, so they are modeled as a tagged union
// of criterion kinds evaluated by a small interpreter instead of a fixed
// schema. Evaluation is fail-closed on the profile side: a criterion that
// needs an attribute the profile does not carry fails. An absent criterion is
// no constraint at all.
type Criterion interface {
	Kind() string
	Evaluate(p *profile.Profile) bool
}

// NumericRange passes when the profile attribute lies within [Min, Max].
// Either bound may be nil (unbounded on that side).
type NumericRange struct {
	Field string   `json:"field"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

func (c NumericRange) Kind() string { return "numericRange" }

func (c NumericRange) Evaluate(p *profile.Profile) bool {
	v, ok := numericAttr(p, c.Field)
	if !ok {
		return false
	}
	if c.Min != nil && v < *c.Min {
		return false
	}
	if c.Max != nil && v > *c.Max {
		return false
	}
	return true
}

// SetMembership passes when the profile attribute is one of Values. An empty
// Values list is no constraint.
type SetMembership struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

func (c SetMembership) Kind() string { return "setMembership" }

func (c SetMembership) Evaluate(p *profile.Profile) bool {
	if len(c.Values) == 0 {
		return true
	}
	v, ok := stringAttr(p, c.Field)
	if !ok || v == "" {
		return false
	}
	for _, allowed := range c.Values {
		if v == allowed {
			return true
		}
	}
	return false
}

// Flag passes when a boolean profile attribute has the wanted value.
type Flag struct {
	Field string `json:"field"`
	Want  bool   `json:"want"`
}

func (c Flag) Kind() string { return "flag" }

func (c Flag) Evaluate(p *profile.Profile) bool {
	v, ok := boolAttr(p, c.Field)
	return ok && v == c.Want
}

// Criteria is the per-scheme criterion set. A scheme qualifies only if every
// criterion passes; an empty set qualifies unconditionally.
type Criteria []Criterion

func (cs Criteria) Evaluate(p *profile.Profile) bool {
	for _, c := range cs {
		if !c.Evaluate(p) {
			return false
		}
	}
	return true
}

type rawCriterion struct {
	Kind   string   `json:"kind"`
	Field  string   `json:"field"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Values []string `json:"values"`
	Want   bool     `json:"want"`
}

func (cs *Criteria) UnmarshalJSON(data []byte) error {
	var raw []rawCriterion
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Criteria, 0, len(raw))
	for _, r := range raw {
		switch r.Kind {
		case "numericRange":
			out = append(out, NumericRange{Field: r.Field, Min: r.Min, Max: r.Max})
		case "setMembership":
			out = append(out, SetMembership{Field: r.Field, Values: r.Values})
		case "flag":
			out = append(out, Flag{Field: r.Field, Want: r.Want})
		default:
			return fmt.Errorf("unknown criterion kind %q", r.Kind)
		}
	}
	*cs = out
	return nil
}

func (cs Criteria) MarshalJSON() ([]byte, error) {
	raw := make([]map[string]any, 0, len(cs))
	for _, c := range cs {
		entry := map[string]any{"kind": c.Kind()}
		switch v := c.(type) {
		case NumericRange:
			entry["field"] = v.Field
			if v.Min != nil {
				entry["min"] = *v.Min
			}
			if v.Max != nil {
				entry["max"] = *v.Max
			}
		case SetMembership:
			entry["field"] = v.Field
			entry["values"] = v.Values
		case Flag:
			entry["field"] = v.Field
			entry["want"] = v.Want
		}
		raw = append(raw, entry)
	}
	return json.Marshal(raw)
}

// Attribute accessors. The second return reports whether the profile carries
// the attribute at all; nil optional fields and unknown names read as absent.

func numericAttr(p *profile.Profile, field string) (float64, bool) {
	switch field {
	case "age":
		if p.Age == nil {
			return 0, false
		}
		return float64(*p.Age), true
	case "annualIncome":
		if p.AnnualIncome == nil {
			return 0, false
		}
		return float64(*p.AnnualIncome), true
	case "familySize":
		if p.FamilySize == nil {
			return 0, false
		}
		return float64(*p.FamilySize), true
	case "landSizeAcres":
		if p.LandSizeAcres == nil {
			return 0, false
		}
		return *p.LandSizeAcres, true
	case "disabilityPercent":
		if p.DisabilityPercent == nil {
			return 0, false
		}
		return float64(*p.DisabilityPercent), true
	}
	return 0, false
}

func stringAttr(p *profile.Profile, field string) (string, bool) {
	switch field {
	case "location":
		return p.Location, true
	case "sex":
		return p.Sex, true
	case "maritalStatus":
		return p.MaritalStatus, true
	case "socialCategory":
		return p.SocialCategory, true
	case "employmentStatus":
		return p.EmploymentStatus, true
	case "residenceType":
		return p.ResidenceType, true
	}
	return "", false
}

func boolAttr(p *profile.Profile, field string) (bool, bool) {
	switch field {
	case "isDisabled":
		return p.IsDisabled, true
	case "isMinority":
		return p.IsMinority, true
	case "isStudent":
		return p.IsStudent, true
	case "isGovtEmployee":
		return p.IsGovtEmployee, true
	}
	return false, false
}
