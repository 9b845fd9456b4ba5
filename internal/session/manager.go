package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"healthcare-portal-service/internal/observability/metrics"
)

type ctxKey struct{}

// Manager ties the cookie policy to a store.
type Manager struct {
	policy  *Policy
	store   Store
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewManager creates a session manager.
func NewManager(policy *Policy, store Store) *Manager {
	return &Manager{
		policy:  policy,
		store:   store,
		metrics: metrics.DefaultMetrics,
		now:     time.Now,
	}
}

// Policy returns the cookie policy.
func (m *Manager) Policy() *Policy {
	return m.policy
}

// Middleware loads the caller's session, creating one when the cookie is
// missing, invalid or expired, and stores it in the request context. Store
// failures degrade to a fresh unsaved session rather than failing the
// request.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := m.load(ctx, r)
		if sess == nil {
			sess = m.create(ctx)
		}
		http.SetCookie(w, m.policy.Cookie(sess.ID))
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, ctxKey{}, sess)))
	})
}

func (m *Manager) load(ctx context.Context, r *http.Request) *Session {
	c, err := r.Cookie(m.policy.Name)
	if err != nil {
		return nil
	}
	id, err := m.policy.Verify(c.Value)
	if err != nil {
		log.Debug().Str("remote", r.RemoteAddr).Msg("Rejected session cookie")
		return nil
	}
	sess, err := m.store.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.metrics.RecordSessionError("load")
			log.Warn().Err(err).Msg("Session load failed")
		}
		return nil
	}
	// Sliding expiry.
	if err := m.store.Save(ctx, sess, m.policy.TTL); err != nil {
		m.metrics.RecordSessionError("save")
		log.Warn().Err(err).Msg("Session refresh failed")
	}
	return sess
}

func (m *Manager) create(ctx context.Context) *Session {
	now := m.now()
	sess := &Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if err := m.store.Save(ctx, sess, m.policy.TTL); err != nil {
		m.metrics.RecordSessionError("save")
		log.Warn().Err(err).Msg("Session create failed")
	} else {
		m.metrics.RecordSessionCreated()
	}
	return sess
}

// Update applies fn to the session's preferences and persists it.
func (m *Manager) Update(ctx context.Context, sess *Session, fn func(*Preferences)) error {
	fn(&sess.Preferences)
	sess.UpdatedAt = m.now()
	if err := m.store.Save(ctx, sess, m.policy.TTL); err != nil {
		m.metrics.RecordSessionError("save")
		return err
	}
	return nil
}

// Destroy deletes the session and clears the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	// The cookie is cleared even when the store delete fails.
	http.SetCookie(w, m.policy.Expired())
	if sess := FromContext(r.Context()); sess != nil {
		if err := m.store.Delete(r.Context(), sess.ID); err != nil {
			m.metrics.RecordSessionError("delete")
			return err
		}
	}
	return nil
}

// FromContext returns the session stored by Middleware, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
