package domain

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// NamedRef is a backend lookup value (level, country, fund type, ...).
type NamedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Scholarship is the read-only listing object served by the backend.
type Scholarship struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Provider       string `json:"provider,omitempty"`
	Amount         string `json:"amount,omitempty"`
	Deadline       string `json:"deadline,omitempty"`
	OpenDate       string `json:"open_date,omitempty"`
	ApplicationURL string `json:"application_url,omitempty"`
	Image          string `json:"image,omitempty"`
	IsFeatured     bool   `json:"is_featured,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`

	Levels               []NamedRef `json:"levels,omitempty"`
	Categories           []NamedRef `json:"scholarship_category,omitempty"`
	FieldsOfStudy        []NamedRef `json:"field_of_study,omitempty"`
	FundTypes            []NamedRef `json:"fund_type,omitempty"`
	SponsorTypes         []NamedRef `json:"sponsor_type,omitempty"`
	LanguageRequirements []NamedRef `json:"language_requirement,omitempty"`
	CountryDetail        *NamedRef  `json:"country_detail,omitempty"`
	CountryName          string     `json:"country_name,omitempty"`
}

// ScholarshipRef points at a scholarship from a user-owned record. The
// backend serializes it either as a bare numeric id or as the nested object,
// so unmarshalling accepts both.
type ScholarshipRef struct {
	ID     int64
	Detail *Scholarship
}

func (r *ScholarshipRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '{' {
		var s Scholarship
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		r.ID = s.ID
		r.Detail = &s
		return nil
	}
	r.Detail = nil
	return json.Unmarshal(data, &r.ID)
}

func (r ScholarshipRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// SavedScholarship is a user's bookmark record.
type SavedScholarship struct {
	ID          int64          `json:"id"`
	Scholarship ScholarshipRef `json:"scholarship"`
	CreatedAt   string         `json:"created_at,omitempty"`
}

// Application is a user's scholarship application record.
type Application struct {
	ID          int64          `json:"id"`
	Scholarship ScholarshipRef `json:"scholarship"`
	Status      string         `json:"status,omitempty"`
	AppliedAt   string         `json:"applied_at,omitempty"`
}

// FilterOptions is the set of lookup values the search filters draw from.
type FilterOptions struct {
	Levels               []NamedRef `json:"levels,omitempty"`
	Countries            []NamedRef `json:"countries,omitempty"`
	FieldsOfStudy        []NamedRef `json:"field_of_study,omitempty"`
	FundTypes            []NamedRef `json:"fund_type,omitempty"`
	SponsorTypes         []NamedRef `json:"sponsor_type,omitempty"`
	Categories           []NamedRef `json:"scholarship_category,omitempty"`
	LanguageRequirements []NamedRef `json:"language_requirement,omitempty"`
}

// Filters mirrors the backend's listing query parameters. Zero values are
// omitted from the query string.
type Filters struct {
	Levels              string
	Country             string
	FieldOfStudy        string
	FundType            string
	SponsorType         string
	Category            string
	DeadlineBefore      string
	LanguageRequirement string
}

// Values encodes the non-empty filters into query parameters.
func (f Filters) Values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("levels", f.Levels)
	set("country", f.Country)
	set("field_of_study", f.FieldOfStudy)
	set("fund_type", f.FundType)
	set("sponsor_type", f.SponsorType)
	set("scholarship_category", f.Category)
	set("deadline_before", f.DeadlineBefore)
	set("language_requirement", f.LanguageRequirement)
	return v
}

// FormatID renders a numeric backend id as a path segment.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
