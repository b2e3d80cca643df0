package session

import (
	"context"
	"testing"
	"time"

	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/testutil"
)

func newTestRegistry(t *testing.T) (*Registry, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(t)
	reg := NewRegistry(env.Provider, env.Premium, env.Remote, env.Guest, time.Minute)
	t.Cleanup(reg.Close)
	return reg, env
}

func TestGetReusesSession(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	a := reg.Get(ctx, "sid-1", "", models.DefaultPreferences())
	b := reg.Get(ctx, "sid-1", "", models.DefaultPreferences())
	if a != b {
		t.Fatalf("same sid must return the same session")
	}
	if reg.Get(ctx, "sid-2", "", models.DefaultPreferences()) == a {
		t.Fatalf("different sids must not share a session")
	}
	if reg.Len() != 2 {
		t.Fatalf("len = %d, want 2", reg.Len())
	}
}

func TestNewSessionResolvesIdentityThenLoadsCart(t *testing.T) {
	ctx := context.Background()
	reg, env := newTestRegistry(t)
	s := env.SignUp(t, "ana@example.com", "motdepasse")
	env.Premium.Set(s.User.ID, true)
	if err := env.Remote.Save(ctx, s.User.ID, []models.CartItem{{ID: "p1", Price: 3, Quantity: 2}}); err != nil {
		t.Fatal(err)
	}

	sess := reg.Get(ctx, "sid-1", s.AccessToken, models.DefaultPreferences())

	if sess.Bridge.Loading() {
		t.Fatalf("bridge still loading")
	}
	if id := sess.Bridge.Identity(); id == nil || id.ID != s.User.ID {
		t.Fatalf("identity = %+v", id)
	}
	if !sess.Bridge.IsPremium() {
		t.Fatalf("premium not resolved")
	}
	items := sess.Cart.Items()
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("remote cart not loaded: %+v", items)
	}
}

func TestAnonymousSessionLoadsGuestCart(t *testing.T) {
	ctx := context.Background()
	reg, env := newTestRegistry(t)
	if err := env.Guest.Save(ctx, "sid-9", []models.CartItem{{ID: "g1", Price: 1, Quantity: 1}}); err != nil {
		t.Fatal(err)
	}

	sess := reg.Get(ctx, "sid-9", "", models.DefaultPreferences())
	if items := sess.Cart.Items(); len(items) != 1 || items[0].ID != "g1" {
		t.Fatalf("guest cart not loaded: %+v", items)
	}
}

func TestSignInMergesGuestCart(t *testing.T) {
	ctx := context.Background()
	reg, env := newTestRegistry(t)
	env.SignUp(t, "ben@example.com", "motdepasse")

	sess := reg.Get(ctx, "sid-1", "", models.DefaultPreferences())
	sess.Cart.Add(ctx, models.CartItem{ID: "p1", Price: 2, Quantity: 1})

	id, err := sess.Bridge.SignIn(ctx, "ben@example.com", "motdepasse")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Cart.UserID() != id.ID {
		t.Fatalf("cart not bound to user after sign in")
	}
	if row := env.Carts.Row(id.ID); row == "" {
		t.Fatalf("merged cart not persisted remotely")
	}
	if env.Redis.Exists("cart:guest:sid-1") {
		t.Fatalf("guest record not deleted after merge")
	}
}

func TestSignOutClearsCartInMemory(t *testing.T) {
	ctx := context.Background()
	reg, env := newTestRegistry(t)
	s := env.SignUp(t, "cleo@example.com", "motdepasse")

	sess := reg.Get(ctx, "sid-1", s.AccessToken, models.DefaultPreferences())
	sess.Cart.Add(ctx, models.CartItem{ID: "p1", Price: 2, Quantity: 1})
	row := env.Carts.Row(s.User.ID)

	if err := sess.Bridge.SignOut(ctx); err != nil {
		t.Fatal(err)
	}
	if len(sess.Cart.Items()) != 0 || sess.Cart.UserID() != "" {
		t.Fatalf("cart not cleared on sign out")
	}
	if env.Carts.Row(s.User.ID) != row {
		t.Fatalf("remote cart must not be touched on sign out")
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	now := time.Now()
	reg.now = func() time.Time { return now }

	idle := reg.Get(ctx, "idle", "", models.DefaultPreferences())
	now = now.Add(50 * time.Second)
	active := reg.Get(ctx, "active", "", models.DefaultPreferences())
	now = now.Add(20 * time.Second)

	if n := reg.Sweep(); n != 1 {
		t.Fatalf("evicted %d sessions, want 1", n)
	}
	if !idle.Closed() || active.Closed() {
		t.Fatalf("wrong session closed")
	}
	select {
	case <-idle.Done():
	default:
		t.Fatalf("Done not closed on eviction")
	}
	select {
	case <-active.Done():
		t.Fatalf("active session reported done")
	default:
	}
	if reg.Get(ctx, "idle", "", models.DefaultPreferences()) == idle {
		t.Fatalf("evicted session must be recreated")
	}
}

func TestSetPreferences(t *testing.T) {
	reg, _ := newTestRegistry(t)
	sess := reg.Get(context.Background(), "sid-1", "", models.DefaultPreferences())

	prefs, err := sess.SetPreferences(models.Preferences{Theme: models.ThemeDark})
	if err != nil {
		t.Fatal(err)
	}
	if prefs.Theme != models.ThemeDark || prefs.Locale != models.DefaultLocale {
		t.Fatalf("prefs = %+v", prefs)
	}
	if _, err := sess.SetPreferences(models.Preferences{Locale: "fr"}); err == nil {
		t.Fatalf("unsupported locale accepted")
	}
	if _, err := sess.SetPreferences(models.Preferences{Theme: "neon"}); err == nil {
		t.Fatalf("invalid theme accepted")
	}
	if sess.Preferences().Theme != models.ThemeDark {
		t.Fatalf("failed update must not change preferences")
	}
}
