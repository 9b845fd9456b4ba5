package meeting

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/livekit/protocol/auth"

	"healthcare-portal-service/internal/models"
)

// Supported providers.
const (
	ProviderJitsi   = "jitsi"
	ProviderZego    = "zego"
	ProviderLiveKit = "livekit"
)

var (
	// ErrUnknownProvider is returned for a provider the service cannot serve.
	ErrUnknownProvider = errors.New("meeting: unknown provider")
	// ErrMissingCredentials is returned when a token cannot be issued.
	ErrMissingCredentials = errors.New("meeting: provider credentials not configured")
)

// Config holds provider settings.
type Config struct {
	Provider         string
	JitsiDomain      string
	ZegoAppID        uint32
	ZegoServerSecret string
	ZegoBaseURL      string
	LiveKitURL       string
	LiveKitAPIKey    string
	LiveKitAPISecret string
	TokenTTL         time.Duration
}

// Service builds MeetingInfo for a caller.
type Service struct {
	cfg Config
	now func() time.Time
}

// NewService creates a meeting service.
func NewService(cfg Config) *Service {
	if cfg.Provider == "" {
		cfg.Provider = ProviderJitsi
	}
	if cfg.JitsiDomain == "" {
		cfg.JitsiDomain = "meet.jit.si"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 2 * time.Hour
	}
	return &Service{cfg: cfg, now: time.Now}
}

// Provider returns the default provider.
func (s *Service) Provider() string {
	return s.cfg.Provider
}

// ShareURL returns the link a participant opens to join room.
func (s *Service) ShareURL(provider, room string, role models.Role) (string, error) {
	switch provider {
	case ProviderJitsi:
		return "https://" + s.cfg.JitsiDomain + "/" + url.PathEscape(room), nil
	case ProviderZego:
		q := url.Values{}
		q.Set("roomID", room)
		q.Set("role", string(role))
		return s.cfg.ZegoBaseURL + "?" + q.Encode(), nil
	case ProviderLiveKit:
		return strings.TrimRight(s.cfg.LiveKitURL, "/") + "/rooms/" + url.PathEscape(room), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// Describe returns the join details for the appointment's stable room.
func (s *Service) Describe(mc models.MeetingContext) (models.MeetingInfo, error) {
	return s.describe(mc, StableRoomName(mc.AppointmentID))
}

// DescribeAdHoc returns join details for a fresh timestamped room.
func (s *Service) DescribeAdHoc(mc models.MeetingContext) (models.MeetingInfo, error) {
	return s.describe(mc, TimestampedRoomName(mc.AppointmentID, s.now()))
}

func (s *Service) describe(mc models.MeetingContext, room string) (models.MeetingInfo, error) {
	provider := strings.ToLower(mc.Provider)
	if provider == "" {
		provider = s.cfg.Provider
	}
	role := mc.Role
	if !role.Valid() {
		role = models.RolePatient
	}

	share, err := s.ShareURL(provider, room, role)
	if err != nil {
		return models.MeetingInfo{}, err
	}

	info := models.MeetingInfo{
		Provider: provider,
		Room:     room,
		ShareURL: share,
		Role:     role,
		Identity: Identity(mc),
		Widget:   WidgetConfigFor(role, mc.DisplayName),
	}

	now := s.now()
	switch provider {
	case ProviderZego:
		token, err := ZegoToken04(s.cfg.ZegoAppID, info.Identity, s.cfg.ZegoServerSecret, s.cfg.TokenTTL, now)
		if err != nil {
			return models.MeetingInfo{}, err
		}
		info.Token = token
		info.AppID = s.cfg.ZegoAppID
		info.TokenExpiry = now.Add(s.cfg.TokenTTL).Unix()
	case ProviderLiveKit:
		token, err := s.liveKitToken(room, info.Identity, mc.DisplayName, role)
		if err != nil {
			return models.MeetingInfo{}, err
		}
		info.Token = token
		info.ServerURL = s.cfg.LiveKitURL
		info.TokenExpiry = now.Add(s.cfg.TokenTTL).Unix()
	}
	return info, nil
}

func (s *Service) liveKitToken(room, identity, name string, role models.Role) (string, error) {
	if s.cfg.LiveKitAPIKey == "" || s.cfg.LiveKitAPISecret == "" {
		return "", fmt.Errorf("%w: livekit api key", ErrMissingCredentials)
	}
	grant := &auth.VideoGrant{
		RoomJoin:   true,
		Room:       room,
		RoomAdmin:  role == models.RoleDoctor,
		RoomRecord: role == models.RoleDoctor,
	}
	grant.SetCanPublish(true)
	grant.SetCanSubscribe(true)

	at := auth.NewAccessToken(s.cfg.LiveKitAPIKey, s.cfg.LiveKitAPISecret)
	at.AddGrant(grant).
		SetIdentity(identity).
		SetName(name).
		SetValidFor(s.cfg.TokenTTL)
	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("meeting: livekit token: %w", err)
	}
	return token, nil
}

// Identity is the participant id passed to the call widget.
func Identity(mc models.MeetingContext) string {
	role := mc.Role
	if !role.Valid() {
		role = models.RolePatient
	}
	id := mc.PatientID
	if role == models.RoleDoctor {
		id = mc.DoctorID
	}
	if id == "" {
		id = mc.AppointmentID
	}
	if s := sanitize(id); s != "" {
		return string(role) + "-" + s
	}
	return string(role)
}
