package session

import (
	"context"
	"sync"
	"time"

	"shopblog_back_end/internal/auth"
	"shopblog_back_end/internal/cart"
	"shopblog_back_end/internal/models"
)

const DefaultIdleTTL = 30 * time.Minute

// Registry garde les sessions actives par identifiant de cookie et libère
// celles restées inactives plus de idleTTL.
type Registry struct {
	provider auth.Provider
	premium  auth.PremiumChecker
	remote   cart.Store
	guest    cart.Store
	idleTTL  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(provider auth.Provider, premium auth.PremiumChecker, remote, guest cart.Store, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		provider: provider,
		premium:  premium,
		remote:   remote,
		guest:    guest,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get retourne la session sid, créée et initialisée au premier accès avec le
// jeton et les préférences du cookie.
func (r *Registry) Get(ctx context.Context, sid, accessToken string, prefs models.Preferences) *Session {
	r.mu.Lock()
	s, ok := r.sessions[sid]
	if !ok {
		bridge := auth.NewBridge(r.provider, r.premium)
		s = newSession(sid, bridge, cart.NewManager(sid, r.remote, r.guest), prefs)
		r.sessions[sid] = s
	}
	s.touch(r.now())
	r.mu.Unlock()

	// hors verrou : la résolution fait des appels réseau
	s.init(ctx, accessToken)
	return s
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep libère les sessions inactives et retourne leur nombre
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.idleSince(now) > r.idleTTL {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}

// Run balaie périodiquement jusqu'à l'annulation de ctx
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.idleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close libère toutes les sessions (arrêt du serveur)
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
