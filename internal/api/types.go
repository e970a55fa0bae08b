package api

import (
	"fmt"
	"strings"
)

// Endpoint paths, relative to the API base URL.
const (
	PathLogin      = "voter/login/"
	PathQuickLogin = "voter/quick-login/"
	PathRegister   = "voter/register/"
	PathMe         = "voter/me/"
)

// Voter is the backend's voter record. Its shape belongs to the backend,
// so it is kept as a decoded JSON object; nil means no voter.
type Voter map[string]any

// Name returns the display name, falling back to first/last name fields.
func (v Voter) Name() string {
	if s := v.str("name"); s != "" {
		return s
	}
	return strings.TrimSpace(v.str("first_name") + " " + v.str("last_name"))
}

// VoterID returns the backend-issued voter identifier.
func (v Voter) VoterID() string {
	return v.str("voter_id")
}

// HasVoted reports the has_voted flag.
func (v Voter) HasVoted() bool {
	b, _ := v["has_voted"].(bool)
	return b
}

// Field renders any top-level field as text. Missing fields are "".
func (v Voter) Field(key string) string {
	val, ok := v[key]
	if !ok || val == nil {
		return ""
	}
	switch t := val.(type) {
	case string:
		return t
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

func (v Voter) str(key string) string {
	s, _ := v[key].(string)
	return s
}

// AuthResponse is returned by the login, quick-login and register endpoints.
type AuthResponse struct {
	Token string `json:"token"`
	Voter Voter  `json:"voter"`
}

// LoginRequest authenticates with a voter identifier and PIN.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// QuickLoginRequest authenticates by name without a password.
type QuickLoginRequest struct {
	Name           string `json:"name"`
	BatchYear      int    `json:"batch_year"`
	CampusChapter  string `json:"campus_chapter"`
	PrivacyConsent bool   `json:"privacy_consent"`
}

// Registration is the self-registration form accepted by the backend.
type Registration struct {
	FirstName        string `json:"first_name"`
	MiddleName       string `json:"middle_name,omitempty"`
	LastName         string `json:"last_name"`
	StudentID        string `json:"student_id"`
	DateOfBirth      string `json:"date_of_birth"`
	DegreeProgram    string `json:"degree_program"`
	BatchYear        int    `json:"batch_year"`
	CampusChapter    string `json:"campus_chapter,omitempty"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	EmploymentStatus string `json:"employment_status"`
	IndustryField    string `json:"industry_field"`
	PrivacyConsent   bool   `json:"privacy_consent"`
	Password         string `json:"password"`
}
