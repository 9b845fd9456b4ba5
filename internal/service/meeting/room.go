// Package meeting derives consultation room names, share links, join tokens
// and per-role widget settings. Room derivation does no I/O and cannot fail.
package meeting

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"healthcare-portal-service/internal/models"
)

const (
	roomPrefix = "consultation"
	digestLen  = 10
)

// StableRoomName returns the room for an appointment. Repeated calls with
// the same id return the same name.
func StableRoomName(appointmentID string) string {
	id := roomID(appointmentID)
	if id == "" {
		return roomPrefix
	}
	return roomPrefix + "-" + id
}

// TimestampedRoomName returns a room unique to now, for ad hoc calls.
func TimestampedRoomName(appointmentID string, now time.Time) string {
	ms := now.UnixMilli()
	id := roomID(appointmentID)
	if id == "" {
		return fmt.Sprintf("room-%d", ms)
	}
	return fmt.Sprintf("%s-%s-%d", roomPrefix, id, ms)
}

// roomID maps an appointment id to a URL-safe room component. Ids that
// sanitize would alter carry a short digest of the trimmed raw id, so two
// distinct ids never share a room.
func roomID(appointmentID string) string {
	raw := strings.TrimSpace(appointmentID)
	if raw == "" {
		return ""
	}
	id := sanitize(raw)
	if id == raw {
		return id
	}
	sum := sha256.Sum256([]byte(raw))
	digest := hex.EncodeToString(sum[:])[:digestLen]
	if id == "" {
		return digest
	}
	return id + "-" + digest
}

// sanitize lowercases id and maps everything outside [a-z0-9] to a single
// dash so the result is safe in URLs and provider room ids.
func sanitize(id string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(id)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// WidgetConfigFor returns the call widget toggles for role. Patients join
// muted without moderator controls; doctors moderate and may record.
func WidgetConfigFor(role models.Role, displayName string) models.WidgetConfig {
	if role == models.RoleDoctor {
		return models.WidgetConfig{
			ModeratorControls: true,
			ScreenShare:       true,
			Recording:         true,
			Chat:              true,
			PrejoinPage:       false,
			DisplayName:       displayName,
		}
	}
	return models.WidgetConfig{
		StartWithAudioMuted: true,
		StartWithVideoMuted: false,
		Chat:                true,
		PrejoinPage:         true,
		DisplayName:         displayName,
	}
}
