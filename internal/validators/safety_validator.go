package validators

import "greenride/internal/models"

type EmergencyContactRequest struct {
	Name         string `json:"name" validate:"required,not_blank,max=100"`
	Phone        string `json:"phone" validate:"required,phone_number"`
	Relationship string `json:"relationship" validate:"required,not_blank,max=50"`
}

type IncidentReportRequest struct {
	RideID      string                  `json:"ride_id,omitempty" validate:"omitempty,object_id"`
	Type        models.IncidentType     `json:"type" validate:"required"`
	Severity    models.IncidentSeverity `json:"severity" validate:"required"`
	Description string                  `json:"description" validate:"required,not_blank,max=2000"`
}

func ValidateIncidentReport(req *IncidentReportRequest) ValidationErrors {
	errs := ValidateStruct(req)

	if req.Type != "" && !req.Type.IsValid() {
		errs = append(errs, ValidationError{Field: "type", Tag: "oneof", Value: string(req.Type), Message: "Invalid incident type"})
	}
	if req.Severity != "" && !req.Severity.IsValid() {
		errs = append(errs, ValidationError{Field: "severity", Tag: "oneof", Value: string(req.Severity), Message: "Invalid severity"})
	}

	return errs
}
