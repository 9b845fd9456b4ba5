package models

// Doctor is a provider listed in the portal directory.
type Doctor struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Specialty      string   `json:"specialty"`
	Hospital       string   `json:"hospital"`
	Languages      []string `json:"languages"`
	ExperienceYrs  int      `json:"experienceYears"`
	Rating         float64  `json:"rating"`
	ConsultFeeINR  int      `json:"consultFeeInr"`
	AvailableSlots []string `json:"availableSlots"`
}

// Prescription is a medication order issued to a patient.
type Prescription struct {
	ID         string `json:"id"`
	PatientID  string `json:"patientId"`
	DoctorID   string `json:"doctorId"`
	Medication string `json:"medication"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency"`
	Duration   string `json:"duration"`
	IssuedOn   string `json:"issuedOn"`
	Notes      string `json:"notes,omitempty"`
}

// MedicalReport is a lab or imaging report attached to a patient record.
type MedicalReport struct {
	ID        string `json:"id"`
	PatientID string `json:"patientId"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Date      string `json:"date"`
	Summary   string `json:"summary"`
	Status    string `json:"status"`
}

// Vital is one recorded vital-sign measurement.
type Vital struct {
	PatientID string  `json:"patientId"`
	Kind      string  `json:"kind"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Recorded  string  `json:"recorded"`
}
