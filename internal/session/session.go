// Package session tient le contexte de chaque navigateur : identité, panier
// et préférences, retrouvés par l'identifiant stocké dans le cookie.
package session

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"shopblog_back_end/internal/apperr"
	"shopblog_back_end/internal/auth"
	"shopblog_back_end/internal/cart"
	"shopblog_back_end/internal/models"
)

const identityTimeout = 5 * time.Second

// Session est le contexte explicite d'un navigateur, partagé par ses requêtes
type Session struct {
	ID     string
	Bridge *auth.Bridge
	Cart   *cart.Manager

	mu    sync.RWMutex
	prefs models.Preferences

	lastSeen    atomic.Int64
	closed      atomic.Bool
	done        chan struct{}
	initOnce    sync.Once
	unsubscribe func()
}

func newSession(id string, bridge *auth.Bridge, manager *cart.Manager, prefs models.Preferences) *Session {
	return &Session{ID: id, Bridge: bridge, Cart: manager, prefs: prefs, done: make(chan struct{})}
}

// init : identité résolue, puis statut premium (dans Resolve), puis panier.
// Le panier suit ensuite les changements d'identité du bridge.
func (s *Session) init(ctx context.Context, accessToken string) {
	s.initOnce.Do(func() {
		identity := s.Bridge.Resolve(ctx, accessToken)
		if identity != nil {
			s.Cart.SetIdentity(ctx, identity)
		} else {
			s.Cart.Load(ctx)
		}

		s.unsubscribe = s.Bridge.Subscribe(func(change auth.Change) {
			ctx, cancel := context.WithTimeout(context.Background(), identityTimeout)
			defer cancel()
			s.Cart.SetIdentity(ctx, change.Identity)
		})
	})
}

func (s *Session) Preferences() models.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// SetPreferences applique les champs non vides de p après validation
func (s *Session) SetPreferences(p models.Preferences) (models.Preferences, error) {
	if p.Theme != "" && !models.ValidTheme(p.Theme) {
		return models.Preferences{}, apperr.Validation("Thème invalide")
	}
	if p.Locale != "" && !models.ValidLocale(p.Locale) {
		return models.Preferences{}, apperr.Validation("Langue non supportée")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Theme != "" {
		s.prefs.Theme = p.Theme
	}
	if p.Locale != "" {
		s.prefs.Locale = p.Locale
	}
	return s.prefs, nil
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// Touch marque la session active hors requête HTTP (websocket ouvert)
func (s *Session) Touch() {
	s.touch(time.Now())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// Close détache le panier du bridge puis libère les deux
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.done)
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.Bridge.Close()
	s.Cart.Close()
	log.Printf("🧹 Session %s libérée", s.ID)
}

// Done est fermé quand la session est libérée
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Closed() bool {
	return s.closed.Load()
}
