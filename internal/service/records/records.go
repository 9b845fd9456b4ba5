// Package records serves the read-only mock portal records.
package records

import (
	"errors"

	"healthcare-portal-service/internal/models"
)

// ErrNotFound is returned when a record id is unknown.
var ErrNotFound = errors.New("records: not found")

// Repository exposes the fixed collections. Callers receive copies, so the
// literals cannot be mutated through the API.
type Repository struct {
	doctors       []models.Doctor
	prescriptions []models.Prescription
	reports       []models.MedicalReport
	vitals        []models.Vital
}

// NewRepository returns the repository backed by the built-in data.
func NewRepository() *Repository {
	return &Repository{
		doctors:       seedDoctors,
		prescriptions: seedPrescriptions,
		reports:       seedReports,
		vitals:        seedVitals,
	}
}

// Doctors lists doctors, optionally filtered by specialty.
func (r *Repository) Doctors(specialty string) []models.Doctor {
	out := make([]models.Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		if specialty == "" || d.Specialty == specialty {
			d.Languages = append([]string(nil), d.Languages...)
			d.AvailableSlots = append([]string(nil), d.AvailableSlots...)
			out = append(out, d)
		}
	}
	return out
}

// Doctor returns the doctor with id.
func (r *Repository) Doctor(id string) (models.Doctor, error) {
	for _, d := range r.doctors {
		if d.ID == id {
			d.Languages = append([]string(nil), d.Languages...)
			d.AvailableSlots = append([]string(nil), d.AvailableSlots...)
			return d, nil
		}
	}
	return models.Doctor{}, ErrNotFound
}

// Prescriptions lists prescriptions, optionally for one patient.
func (r *Repository) Prescriptions(patientID string) []models.Prescription {
	out := make([]models.Prescription, 0, len(r.prescriptions))
	for _, p := range r.prescriptions {
		if patientID == "" || p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out
}

// Reports lists medical reports, optionally for one patient.
func (r *Repository) Reports(patientID string) []models.MedicalReport {
	out := make([]models.MedicalReport, 0, len(r.reports))
	for _, m := range r.reports {
		if patientID == "" || m.PatientID == patientID {
			out = append(out, m)
		}
	}
	return out
}

// Vitals lists vital readings, optionally for one patient.
func (r *Repository) Vitals(patientID string) []models.Vital {
	out := make([]models.Vital, 0, len(r.vitals))
	for _, v := range r.vitals {
		if patientID == "" || v.PatientID == patientID {
			out = append(out, v)
		}
	}
	return out
}
