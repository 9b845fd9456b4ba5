package models

// Role is a participant's role in a consultation.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

// MeetingContext identifies a consultation and the caller joining it.
type MeetingContext struct {
	AppointmentID string `json:"appointmentId"`
	DoctorID      string `json:"doctorId,omitempty"`
	PatientID     string `json:"patientId,omitempty"`
	Role          Role   `json:"role"`
	DisplayName   string `json:"displayName,omitempty"`
	Provider      string `json:"provider,omitempty"`
}

// WidgetConfig is the set of boolean feature toggles handed to the call
// widget at join time.
type WidgetConfig struct {
	StartWithAudioMuted bool   `json:"startWithAudioMuted"`
	StartWithVideoMuted bool   `json:"startWithVideoMuted"`
	ModeratorControls   bool   `json:"moderatorControls"`
	ScreenShare         bool   `json:"screenShare"`
	Recording           bool   `json:"recording"`
	Chat                bool   `json:"chat"`
	PrejoinPage         bool   `json:"prejoinPage"`
	DisplayName         string `json:"displayName,omitempty"`
}

// MeetingInfo is everything a client needs to join a consultation room.
type MeetingInfo struct {
	Provider    string       `json:"provider"`
	Room        string       `json:"room"`
	ShareURL    string       `json:"shareUrl"`
	Role        Role         `json:"role"`
	Identity    string       `json:"identity"`
	Widget      WidgetConfig `json:"widget"`
	Token       string       `json:"token,omitempty"`
	AppID       uint32       `json:"appId,omitempty"`
	ServerURL   string       `json:"serverUrl,omitempty"`
	TokenExpiry int64        `json:"tokenExpiry,omitempty"`
}
