package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := NewPolicy(PolicyConfig{
		CookieName: "portal.sid",
		Secret:     "test-secret",
		TTL:        time.Hour,
		Secure:     true,
		HTTPOnly:   true,
		SameSite:   "strict",
	})
	require.NoError(t, err)
	return p
}

func TestNewPolicy_Validation(t *testing.T) {
	_, err := NewPolicy(PolicyConfig{})
	assert.Error(t, err)

	_, err = NewPolicy(PolicyConfig{Secret: "s", SameSite: "sometimes"})
	assert.Error(t, err)

	p, err := NewPolicy(PolicyConfig{Secret: "s"})
	require.NoError(t, err)
	assert.Equal(t, "portal.sid", p.Name)
	assert.Equal(t, 24*time.Hour, p.TTL)
	assert.Equal(t, http.SameSiteLaxMode, p.SameSite)
}

func TestPolicy_SignVerify(t *testing.T) {
	p := testPolicy(t)

	id, err := p.Verify(p.Sign("abc-123"))
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)

	tampered := strings.Replace(p.Sign("abc-123"), "abc", "abd", 1)
	_, err = p.Verify(tampered)
	assert.True(t, errors.Is(err, ErrInvalidSession))

	for _, v := range []string{"", "noseparator", ".sig", "id."} {
		_, err := p.Verify(v)
		assert.True(t, errors.Is(err, ErrInvalidSession), "value %q", v)
	}
}

func TestPolicy_DifferentSecretsDoNotVerify(t *testing.T) {
	a := testPolicy(t)
	b, err := NewPolicy(PolicyConfig{Secret: "other"})
	require.NoError(t, err)

	_, err = b.Verify(a.Sign("id"))
	assert.True(t, errors.Is(err, ErrInvalidSession))
}

func TestPolicy_CookieFlags(t *testing.T) {
	p := testPolicy(t)
	c := p.Cookie("id")

	assert.Equal(t, "portal.sid", c.Name)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)

	assert.Equal(t, -1, p.Expired().MaxAge)
}

func TestMemoryStore_Expiry(t *testing.T) {
	m := NewMemoryStore()
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, &Session{ID: "s1"}, time.Minute))
	got, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	now = now.Add(2 * time.Minute)
	_, err = m.Load(ctx, "s1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Zero(t, m.Len())
}

func TestMemoryStore_SaveSweepsExpired(t *testing.T) {
	m := NewMemoryStore()
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.NoError(t, m.Save(ctx, &Session{ID: fmt.Sprintf("s%d", i)}, time.Millisecond))
	}
	assert.Equal(t, 100, m.Len())

	now = now.Add(2 * defaultSweepInterval)
	require.NoError(t, m.Save(ctx, &Session{ID: "fresh"}, time.Hour))
	assert.Equal(t, 1, m.Len())
}

func TestMemoryStore_JanitorSweepsWithoutLoad(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(testPolicy(t), shortLived{store})
	stop := store.StartJanitor(5 * time.Millisecond)
	defer stop()

	for i := 0; i < 1000; i++ {
		serve(m, func(w http.ResponseWriter, r *http.Request) {})
	}

	assert.Eventually(t, func() bool { return store.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestMemoryStore_JanitorStopIsIdempotent(t *testing.T) {
	stop := NewMemoryStore().StartJanitor(0)
	stop()
	stop()
}

// shortLived saves every session with a 1ms TTL.
type shortLived struct{ *MemoryStore }

func (s shortLived) Save(ctx context.Context, sess *Session, _ time.Duration) error {
	return s.MemoryStore.Save(ctx, sess, time.Millisecond)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, &Session{ID: "s1", Preferences: Preferences{Language: "Hindi"}}, time.Minute))

	got, _ := m.Load(ctx, "s1")
	got.Preferences.Language = "Spanish"

	again, _ := m.Load(ctx, "s1")
	assert.Equal(t, "Hindi", again.Preferences.Language)
}

func TestRedisStore_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	s := NewRedisStore(client, "portal:sess:")

	assert.Equal(t, "portal:sess:abc", s.key("abc"))

	_, err := s.Load(context.Background(), "abc")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func serve(m *Manager, h http.HandlerFunc, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	m.Middleware(h).ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "portal.sid" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestMiddleware_CreatesAndReusesSession(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(testPolicy(t), store)

	var firstID string
	rec := serve(m, func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		require.NotNil(t, s)
		firstID = s.ID
	})
	assert.Equal(t, 1, store.Len())
	cookie := sessionCookie(t, rec)

	var secondID string
	serve(m, func(w http.ResponseWriter, r *http.Request) {
		secondID = FromContext(r.Context()).ID
	}, cookie)

	assert.Equal(t, firstID, secondID)
	assert.Equal(t, 1, store.Len())
}

func TestMiddleware_ForgedCookieGetsNewSession(t *testing.T) {
	m := NewManager(testPolicy(t), NewMemoryStore())

	var id string
	serve(m, func(w http.ResponseWriter, r *http.Request) {
		id = FromContext(r.Context()).ID
	}, &http.Cookie{Name: "portal.sid", Value: "victim.forged"})

	assert.NotEqual(t, "victim", id)
	assert.NotEmpty(t, id)
}

func TestManager_UpdateAndDestroy(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(testPolicy(t), store)

	rec := serve(m, func(w http.ResponseWriter, r *http.Request) {
		err := m.Update(r.Context(), FromContext(r.Context()), func(p *Preferences) {
			p.Language = "Hindi"
			p.LastRoom = "consultation-a123"
		})
		require.NoError(t, err)
	})
	cookie := sessionCookie(t, rec)

	serve(m, func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		assert.Equal(t, "Hindi", s.Preferences.Language)
		assert.Equal(t, "consultation-a123", s.Preferences.LastRoom)
	}, cookie)

	rec = serve(m, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.Destroy(w, r))
	}, cookie)

	assert.Zero(t, store.Len())
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "portal.sid" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "expected an expiring cookie")
}

type failingDeleteStore struct{ *MemoryStore }

func (failingDeleteStore) Delete(context.Context, string) error {
	return errors.New("store unavailable")
}

func TestManager_DestroyExpiresCookieWhenDeleteFails(t *testing.T) {
	m := NewManager(testPolicy(t), failingDeleteStore{NewMemoryStore()})

	cookie := sessionCookie(t, serve(m, func(w http.ResponseWriter, r *http.Request) {}))
	rec := serve(m, func(w http.ResponseWriter, r *http.Request) {
		assert.Error(t, m.Destroy(w, r))
	}, cookie)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "portal.sid" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "expected an expiring cookie")
}

func TestFromContext_Missing(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}
