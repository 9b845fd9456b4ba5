// Package schema defines the JSON request bodies accepted by the HTTP API
// and validates them before they reach a service.
package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"healthcare-portal-service/internal/models"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid request")

// MaxTextLength bounds translation input in characters.
const MaxTextLength = 5000

// TranslateRequest is the body of POST /v1/translate.
type TranslateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"targetLang"`
}

// PreferencesRequest is the body of PUT /v1/preferences.
type PreferencesRequest struct {
	Language string `json:"language"`
}

// MeetingRequest is the body of POST /v1/meetings/adhoc.
type MeetingRequest struct {
	AppointmentID string      `json:"appointmentId"`
	DoctorID      string      `json:"doctorId"`
	PatientID     string      `json:"patientId"`
	Role          models.Role `json:"role"`
	Provider      string      `json:"provider"`
	DisplayName   string      `json:"displayName"`
}

// Context converts the request into a meeting context.
func (m MeetingRequest) Context() models.MeetingContext {
	return models.MeetingContext{
		AppointmentID: m.AppointmentID,
		DoctorID:      m.DoctorID,
		PatientID:     m.PatientID,
		Role:          m.Role,
		DisplayName:   m.DisplayName,
		Provider:      m.Provider,
	}
}

// LanguageSet reports whether a language label is loaded.
type LanguageSet interface {
	Known(label string) bool
}

// Validator checks request bodies.
type Validator struct {
	languages LanguageSet
}

// New creates a validator. languages may be nil to skip label checks.
func New(languages LanguageSet) *Validator {
	return &Validator{languages: languages}
}

// Validate checks one of the request types in this package.
func (v *Validator) Validate(req any) error {
	var err error
	switch r := req.(type) {
	case *TranslateRequest:
		err = v.translate(r)
	case *PreferencesRequest:
		err = v.preferences(r)
	case *MeetingRequest:
		err = v.meeting(r)
	default:
		err = fmt.Errorf("%w: unsupported type %T", ErrInvalid, req)
	}
	if err != nil {
		log.Debug().Err(err).Msg("Request rejected")
	}
	return err
}

func (v *Validator) translate(r *TranslateRequest) error {
	if strings.TrimSpace(r.Text) == "" {
		return fieldError("text", "is required")
	}
	if utf8.RuneCountInString(r.Text) > MaxTextLength {
		return fieldError("text", fmt.Sprintf("exceeds %d characters", MaxTextLength))
	}
	lang := strings.TrimSpace(r.TargetLang)
	if lang == "" {
		return fieldError("targetLang", "is required")
	}
	if len(lang) > 16 {
		return fieldError("targetLang", "is too long")
	}
	return nil
}

func (v *Validator) preferences(r *PreferencesRequest) error {
	if strings.TrimSpace(r.Language) == "" {
		return fieldError("language", "is required")
	}
	if v.languages != nil && !v.languages.Known(r.Language) {
		return fieldError("language", fmt.Sprintf("%q is not supported", r.Language))
	}
	return nil
}

func (v *Validator) meeting(r *MeetingRequest) error {
	if r.Role != "" && !r.Role.Valid() {
		return fieldError("role", "must be doctor or patient")
	}
	if len(r.AppointmentID) > 128 {
		return fieldError("appointmentId", "is too long")
	}
	return nil
}

func fieldError(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalid, field, msg)
}
