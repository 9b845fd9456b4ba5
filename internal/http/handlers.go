package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"healthcare-portal-service/internal/app"
	"healthcare-portal-service/internal/models"
	"healthcare-portal-service/internal/schema"
	"healthcare-portal-service/internal/service/audio"
	"healthcare-portal-service/internal/service/meeting"
	"healthcare-portal-service/internal/service/records"
	"healthcare-portal-service/internal/service/stt"
	"healthcare-portal-service/internal/service/translate"
	"healthcare-portal-service/internal/session"
)

// maxUploadBytes bounds a single /v1/transcribe upload.
const maxUploadBytes = 10 << 20

type handlers struct {
	app *app.Application
}

// --- health ---

func (h *handlers) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) readiness(w http.ResponseWriter, _ *http.Request) {
	if !h.app.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// --- preferences and localization ---

type preferencesResponse struct {
	Language          string `json:"language"`
	LastRoom          string `json:"lastRoom,omitempty"`
	LastAppointmentID string `json:"lastAppointmentId,omitempty"`
}

// language picks the caller's language: explicit ?lang, then the session
// preference, then Accept-Language.
func (h *handlers) language(r *http.Request) string {
	loc := h.app.Localization
	if q := r.URL.Query().Get("lang"); q != "" {
		return loc.Resolve(q)
	}
	if sess := session.FromContext(r.Context()); sess != nil && sess.Preferences.Language != "" {
		return loc.Resolve(sess.Preferences.Language)
	}
	return loc.Match(r.Header.Get("Accept-Language"))
}

func (h *handlers) getPreferences(w http.ResponseWriter, r *http.Request) {
	resp := preferencesResponse{Language: h.language(r)}
	if sess := session.FromContext(r.Context()); sess != nil {
		resp.LastRoom = sess.Preferences.LastRoom
		resp.LastAppointmentID = sess.Preferences.LastAppointmentID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) putPreferences(w http.ResponseWriter, r *http.Request) {
	var req schema.PreferencesRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, statusForInvalid(err), err.Error())
		return
	}
	sess := session.FromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusInternalServerError, "no session")
		return
	}
	label := h.app.Localization.Resolve(req.Language)
	err := h.app.Sessions.Update(r.Context(), sess, func(p *session.Preferences) {
		p.Language = label
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to save preferences")
		writeError(w, http.StatusServiceUnavailable, "preferences not saved")
		return
	}
	writeJSON(w, http.StatusOK, preferencesResponse{
		Language:          label,
		LastRoom:          sess.Preferences.LastRoom,
		LastAppointmentID: sess.Preferences.LastAppointmentID,
	})
}

func (h *handlers) i18nTable(w http.ResponseWriter, r *http.Request) {
	lang := h.language(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"language": lang,
		"strings":  h.app.Localization.Table(lang),
	})
}

func (h *handlers) i18nLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default":   h.app.Localization.Default(),
		"languages": h.app.Localization.Languages(),
	})
}

func (h *handlers) i18nLookup(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	lang := h.language(r)
	writeJSON(w, http.StatusOK, map[string]string{
		"key":      key,
		"language": lang,
		"value":    h.app.Localization.Lookup(lang, key),
	})
}

// --- translation and transcription ---

func (h *handlers) translate(w http.ResponseWriter, r *http.Request) {
	var req schema.TranslateRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, statusForInvalid(err), err.Error())
		return
	}

	out, err := h.app.Translator.Translate(r.Context(), req.Text, req.TargetLang)
	switch {
	case errors.Is(err, translate.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "translation unavailable")
	case err != nil:
		log.Warn().Err(err).Str("targetLang", req.TargetLang).Msg("Translation failed")
		writeError(w, http.StatusBadGateway, translate.ErrTranslationFailed.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"translatedText": out})
	}
}

// transcribe accepts one multipart audio segment. Unusable results are
// reported with the sentinel, as the remote service does.
func (h *handlers) transcribe(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "audio too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, hdr, err := r.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "audio too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'audio' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio could not be read")
		return
	}

	seg := stt.Segment{
		ID:          strings.TrimSuffix(hdr.Filename, path.Ext(hdr.Filename)),
		Seq:         1,
		Audio:       data,
		ContentType: hdr.Header.Get("Content-Type"),
	}
	if bytes.HasPrefix(data, []byte("RIFF")) {
		if _, rate, err := audio.DecodeWAV(data); err == nil {
			seg.SampleRateHz = rate
			seg.ContentType = "audio/wav"
		}
	}

	sentinel := h.app.Cfg.Transcription.Sentinel
	text, err := h.app.Transcriber.Transcribe(r.Context(), seg)
	result := stt.Classify(text, err, sentinel)

	switch {
	case result == stt.ResultError:
		log.Warn().Err(err).Str("sttProvider", h.app.Transcriber.Name()).Msg("Transcription failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"transcription": sentinel})
	case !result.Usable():
		writeJSON(w, http.StatusOK, map[string]string{"transcription": sentinel})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"transcription": text})
	}
}

// --- meetings ---

func (h *handlers) describeMeeting(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := schema.MeetingRequest{
		AppointmentID: chi.URLParam(r, "appointmentID"),
		DoctorID:      q.Get("doctorId"),
		PatientID:     q.Get("patientId"),
		Role:          models.Role(q.Get("role")),
		Provider:      q.Get("provider"),
		DisplayName:   q.Get("name"),
	}
	if err := h.app.Validator.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := h.app.Meetings.Describe(req.Context())
	h.respondMeeting(w, r, req, info, err)
}

func (h *handlers) adHocMeeting(w http.ResponseWriter, r *http.Request) {
	var req schema.MeetingRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, statusForInvalid(err), err.Error())
		return
	}
	info, err := h.app.Meetings.DescribeAdHoc(req.Context())
	h.respondMeeting(w, r, req, info, err)
}

func (h *handlers) respondMeeting(w http.ResponseWriter, r *http.Request, req schema.MeetingRequest, info models.MeetingInfo, err error) {
	switch {
	case errors.Is(err, meeting.ErrUnknownProvider):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Str("provider", req.Provider).Msg("Meeting token not issued")
		writeError(w, http.StatusServiceUnavailable, "meeting provider not configured")
		return
	}

	if sess := session.FromContext(r.Context()); sess != nil {
		err := h.app.Sessions.Update(r.Context(), sess, func(p *session.Preferences) {
			p.LastRoom = info.Room
			p.LastAppointmentID = req.AppointmentID
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to remember meeting in session")
		}
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handlers) meetingTranscripts(w http.ResponseWriter, r *http.Request) {
	if h.app.Transcripts == nil {
		writeError(w, http.StatusNotFound, "transcript archive disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := h.app.Transcripts.ListByMeeting(r.Context(), chi.URLParam(r, "appointmentID"), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list transcripts")
		writeError(w, http.StatusServiceUnavailable, "transcript archive unavailable")
		return
	}
	if recs == nil {
		recs = []models.TranscriptRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// --- records ---

func (h *handlers) doctors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Records.Doctors(r.URL.Query().Get("specialty")))
}

func (h *handlers) doctor(w http.ResponseWriter, r *http.Request) {
	d, err := h.app.Records.Doctor(chi.URLParam(r, "id"))
	if errors.Is(err, records.ErrNotFound) {
		writeError(w, http.StatusNotFound, "doctor not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handlers) prescriptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Records.Prescriptions(r.URL.Query().Get("patientId")))
}

func (h *handlers) reports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Records.Reports(r.URL.Query().Get("patientId")))
}

func (h *handlers) vitals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Records.Vitals(r.URL.Query().Get("patientId")))
}

// --- session ---

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Sessions.Destroy(w, r); err != nil {
		log.Warn().Err(err).Msg("Failed to delete session")
	}
	w.WriteHeader(http.StatusNoContent)
}
