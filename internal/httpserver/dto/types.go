// Package dto provides the request and response bodies of the doctorate API
// that are not domain read models.
package dto

import "time"

// ErrorResponse is an API error response.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Code    string        `json:"code,omitempty"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail is one violated business rule.
type ErrorDetail struct {
	StatusCode string `json:"status_code"`
	Message    string `json:"message"`
}

// InitializeRequest opens the trajectory of an admitted student.
type InitializeRequest struct {
	Student    StudentRequest  `json:"student"`
	Training   TrainingRequest `json:"training"`
	AdmittedAt *time.Time      `json:"admitted_at,omitempty"`
}

// StudentRequest identifies the admitted student.
type StudentRequest struct {
	PersonID  string `json:"person_id"`
	Noma      string `json:"noma"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Language  string `json:"language,omitempty"`
}

// TrainingRequest identifies the doctoral training.
type TrainingRequest struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Acronym       string `json:"acronym"`
	Title         string `json:"title"`
	CDD           string `json:"cdd"`
	Sector        string `json:"sector,omitempty"`
	AcademicYear  int    `json:"academic_year"`
	AdmissionType string `json:"admission_type"`
}

// CommandResponse reports what a command changed.
type CommandResponse struct {
	DoctorateID string `json:"doctorate_id"`
	ID          string `json:"id"`
	Action      string `json:"action"`
	Status      string `json:"status"`
}

// ActionsResponse lists action names.
type ActionsResponse struct {
	Actions []string `json:"actions"`
}

// ChangeEvent is pushed to live feed subscribers after a command.
type ChangeEvent struct {
	DoctorateID string    `json:"doctorate_id"`
	Action      string    `json:"action"`
	Status      string    `json:"status"`
	Actor       string    `json:"actor"`
	Timestamp   time.Time `json:"timestamp"`
}
