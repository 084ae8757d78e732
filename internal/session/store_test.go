package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/alphagov/verify-hub-sub002/internal/config"
	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (Store, *miniredis.Miniredis, *clockwork.FakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	clock := clockwork.NewFakeClockAt(testNow)
	return NewStore(client, clock), mr, clock
}

func newSessionStarted(id string) *state.SessionStarted {
	return &state.SessionStarted{
		Core: state.Core{
			SessionID:                   domain.SessionID(id),
			RequestID:                   "request-" + id,
			RequestIssuerEntityID:       "https://rp.example.gov.uk",
			SessionExpiryTimestamp:      testNow.Add(90 * time.Minute),
			AssertionConsumerServiceURI: "https://rp.example.gov.uk/SAML2/SSO/Response",
		},
	}
}

func TestStoreCreate(t *testing.T) {
	store, mr, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, newSessionStarted("sess-001")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !mr.Exists("policy:session:sess-001") {
		t.Error("session key not written")
	}
}

func TestStoreCreateTTL(t *testing.T) {
	store, mr, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, newSessionStarted("sess-ttl")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	want := 90*time.Minute + config.SessionStoreTTLGrace
	if ttl := mr.TTL("policy:session:sess-ttl"); ttl != want {
		t.Errorf("TTL: got %v, want %v", ttl, want)
	}
}

func TestStoreCreateDuplicate(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, newSessionStarted("sess-dup")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Create(ctx, newSessionStarted("sess-dup")); !errors.Is(err, ErrSessionExists) {
		t.Errorf("error = %v, want ErrSessionExists", err)
	}
}

func TestStoreCreateExpired(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	st := newSessionStarted("sess-expired")
	st.SessionExpiryTimestamp = testNow.Add(-time.Hour)

	err := store.Create(ctx, st)
	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Errorf("error = %v, want TimeoutError", err)
	}
}

func TestStoreGet(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, newSessionStarted("sess-get")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	st, version, err := store.Get(ctx, domain.SessionID("sess-get"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
	if st.Kind() != state.KindSessionStarted {
		t.Errorf("Kind = %s, want %s", st.Kind(), state.KindSessionStarted)
	}
	if st.Common().RequestIssuerEntityID != "https://rp.example.gov.uk" {
		t.Errorf("RequestIssuerEntityID = %q", st.Common().RequestIssuerEntityID)
	}
}

func TestStoreGetNotFound(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, _, err := store.Get(context.Background(), domain.SessionID("no-such-session"))
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestStoreUpdate(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	started := newSessionStarted("sess-upd")
	if err := store.Create(ctx, started); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	next := &state.IdpSelected{
		Core:         started.Core,
		IdpEntityID:  "https://idp.example.com",
		Registering:  true,
		RequestedLoa: domain.Level2,
	}
	if err := store.Update(ctx, next, 1); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	st, version, err := store.Get(ctx, domain.SessionID("sess-upd"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}
	got, ok := st.(*state.IdpSelected)
	if !ok {
		t.Fatalf("state type = %T, want *state.IdpSelected", st)
	}
	if got.IdpEntityID != "https://idp.example.com" {
		t.Errorf("IdpEntityID = %q", got.IdpEntityID)
	}
}

func TestStoreUpdateVersionConflict(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	started := newSessionStarted("sess-conflict")
	if err := store.Create(ctx, started); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	next := &state.IdpSelected{Core: started.Core, IdpEntityID: "https://idp.example.com"}
	if err := store.Update(ctx, next, 1); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// 旧世代を前提にした更新は競合扱い
	stale := &state.IdpSelected{Core: started.Core, IdpEntityID: "https://idp2.example.com"}
	if err := store.Update(ctx, stale, 1); !errors.Is(err, ErrConcurrentUpdate) {
		t.Errorf("error = %v, want ErrConcurrentUpdate", err)
	}
}

func TestStoreUpdateIllegalTransition(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	started := newSessionStarted("sess-illegal")
	if err := store.Create(ctx, started); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	next := &state.SuccessfulMatch{Core: started.Core}
	err := store.Update(ctx, next, 1)
	var illegal *state.IllegalTransitionError
	if !errors.As(err, &illegal) {
		t.Fatalf("error = %v, want IllegalTransitionError", err)
	}
	if illegal.From != state.KindSessionStarted || illegal.To != state.KindSuccessfulMatch {
		t.Errorf("transition = %s->%s", illegal.From, illegal.To)
	}
}

func TestStoreUpdateNotFound(t *testing.T) {
	store, _, _ := newTestStore(t)

	next := &state.IdpSelected{Core: newSessionStarted("sess-ghost").Core}
	if err := store.Update(context.Background(), next, 1); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestStoreUpdateTimeoutKeepsKey(t *testing.T) {
	store, mr, clock := newTestStore(t)
	ctx := context.Background()

	started := newSessionStarted("sess-timeout")
	if err := store.Create(ctx, started); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// 失効後でもTimeout状態への書き込みは猶予TTLで成功する
	clock.Advance(2 * time.Hour)
	timeout := &state.Timeout{Core: started.Core}
	if err := store.Update(ctx, timeout, 1); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if ttl := mr.TTL("policy:session:sess-timeout"); ttl != config.SessionStoreTTLGrace {
		t.Errorf("TTL: got %v, want %v", ttl, config.SessionStoreTTLGrace)
	}
}

func TestStoreExists(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, newSessionStarted("sess-exists")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ok, err := store.Exists(ctx, domain.SessionID("sess-exists"))
	if err != nil || !ok {
		t.Errorf("Exists = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = store.Exists(ctx, domain.SessionID("sess-none"))
	if err != nil || ok {
		t.Errorf("Exists = (%v, %v), want (false, nil)", ok, err)
	}
}
