package records

import "healthcare-portal-service/internal/models"

var seedDoctors = []models.Doctor{
	{
		ID: "D1", Name: "Dr. Anita Sharma", Specialty: "Cardiology", Hospital: "City Heart Institute",
		Languages: []string{"English", "Hindi"}, ExperienceYrs: 14, Rating: 4.8, ConsultFeeINR: 800,
		AvailableSlots: []string{"2024-07-01T10:00", "2024-07-01T11:30", "2024-07-02T15:00"},
	},
	{
		ID: "D2", Name: "Dr. Rahul Verma", Specialty: "General Medicine", Hospital: "Sunrise Clinic",
		Languages: []string{"English", "Hindi"}, ExperienceYrs: 9, Rating: 4.5, ConsultFeeINR: 500,
		AvailableSlots: []string{"2024-07-01T09:00", "2024-07-03T12:00"},
	},
	{
		ID: "D3", Name: "Dr. Maria Lopez", Specialty: "Dermatology", Hospital: "Skin Care Centre",
		Languages: []string{"English", "Spanish"}, ExperienceYrs: 11, Rating: 4.7, ConsultFeeINR: 700,
		AvailableSlots: []string{"2024-07-02T14:00"},
	},
	{
		ID: "D4", Name: "Dr. Sameer Khan", Specialty: "Pediatrics", Hospital: "Little Steps Hospital",
		Languages: []string{"English", "Hindi"}, ExperienceYrs: 7, Rating: 4.6, ConsultFeeINR: 600,
		AvailableSlots: []string{"2024-07-01T16:00", "2024-07-04T10:30"},
	},
}

var seedPrescriptions = []models.Prescription{
	{ID: "RX1", PatientID: "P1", DoctorID: "D1", Medication: "Atorvastatin", Dosage: "10 mg", Frequency: "Once daily", Duration: "90 days", IssuedOn: "2024-06-10", Notes: "Take at night"},
	{ID: "RX2", PatientID: "P1", DoctorID: "D2", Medication: "Paracetamol", Dosage: "500 mg", Frequency: "Twice daily", Duration: "5 days", IssuedOn: "2024-06-18"},
	{ID: "RX3", PatientID: "P2", DoctorID: "D3", Medication: "Hydrocortisone cream", Dosage: "1%", Frequency: "Apply twice daily", Duration: "14 days", IssuedOn: "2024-06-20"},
}

var seedReports = []models.MedicalReport{
	{ID: "MR1", PatientID: "P1", Title: "Lipid Profile", Category: "Blood Test", Date: "2024-06-08", Summary: "LDL slightly elevated", Status: "reviewed"},
	{ID: "MR2", PatientID: "P1", Title: "ECG", Category: "Cardiology", Date: "2024-06-09", Summary: "Normal sinus rhythm", Status: "reviewed"},
	{ID: "MR3", PatientID: "P2", Title: "Complete Blood Count", Category: "Blood Test", Date: "2024-06-15", Summary: "Within normal limits", Status: "pending"},
}

var seedVitals = []models.Vital{
	{PatientID: "P1", Kind: "heart_rate", Value: 72, Unit: "bpm", Recorded: "2024-06-20T08:00"},
	{PatientID: "P1", Kind: "blood_pressure_systolic", Value: 128, Unit: "mmHg", Recorded: "2024-06-20T08:00"},
	{PatientID: "P1", Kind: "blood_pressure_diastolic", Value: 84, Unit: "mmHg", Recorded: "2024-06-20T08:00"},
	{PatientID: "P1", Kind: "temperature", Value: 98.6, Unit: "F", Recorded: "2024-06-20T08:00"},
	{PatientID: "P2", Kind: "heart_rate", Value: 80, Unit: "bpm", Recorded: "2024-06-21T09:15"},
	{PatientID: "P2", Kind: "spo2", Value: 98, Unit: "%", Recorded: "2024-06-21T09:15"},
}
