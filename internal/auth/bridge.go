package auth

import (
	"context"
	"log"
	"sync"

	"shopblog_back_end/internal/models"
)

// Change est publié aux observateurs quand l'identité ou le statut premium change
type Change struct {
	Identity *models.Identity
	Premium  bool
}

// Bridge tient l'identité d'une session navigateur.
//
// Il s'abonne aux événements du Provider à sa création et s'en désabonne dans
// Close, qui est l'unique chemin de libération. Loading reste vrai jusqu'à la
// première résolution de session.
type Bridge struct {
	provider Provider
	premium  PremiumChecker

	mu        sync.RWMutex
	session   *Session
	isPremium bool
	loading   bool

	observers   observers[Change]
	unsubscribe func()
	closeOnce   sync.Once
}

func NewBridge(provider Provider, premium PremiumChecker) *Bridge {
	b := &Bridge{
		provider: provider,
		premium:  premium,
		loading:  true,
	}
	b.unsubscribe = provider.OnAuthStateChange(b.handleEvent)
	return b
}

// Identity retourne l'utilisateur courant, nil si anonyme
func (b *Bridge) Identity() *models.Identity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.session == nil {
		return nil
	}
	identity := b.session.User
	return &identity
}

func (b *Bridge) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

func (b *Bridge) IsPremium() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.isPremium
}

// AccessToken retourne le jeton de la session courante ("" si anonyme)
func (b *Bridge) AccessToken() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.session == nil {
		return ""
	}
	return b.session.AccessToken
}

// Resolve effectue la résolution de session : jeton → session → utilisateur
// → statut premium. Un jeton absent ou invalide donne une session anonyme.
func (b *Bridge) Resolve(ctx context.Context, accessToken string) *models.Identity {
	session, err := b.provider.GetSession(ctx, accessToken)
	if err != nil {
		log.Printf("⚠️ Résolution de session échouée: %v", err)
		session = nil
	}

	if session != nil {
		identity, err := b.provider.GetUser(ctx, accessToken)
		if err != nil {
			log.Printf("⚠️ Utilisateur introuvable pour la session: %v", err)
			session = nil
		} else {
			session.User = *identity
		}
	}

	b.setSession(ctx, session)
	return b.Identity()
}

// SignIn connecte l'utilisateur ; un échec retourne *AuthError
func (b *Bridge) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	session, err := b.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, asAuthError("signin", err)
	}
	b.setSession(ctx, session)
	return b.Identity(), nil
}

// SignUp crée le compte puis ouvre la session
func (b *Bridge) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	session, err := b.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, asAuthError("signup", err)
	}
	b.setSession(ctx, session)
	return b.Identity(), nil
}

// SignOut révoque la session auprès du fournisseur puis efface l'état dérivé
func (b *Bridge) SignOut(ctx context.Context) error {
	token := b.AccessToken()
	if token != "" {
		if err := b.provider.SignOut(ctx, token); err != nil {
			return asAuthError("signout", err)
		}
	}
	b.setSession(ctx, nil)
	return nil
}

// RefreshPremium relit le statut premium (après un paiement par exemple)
func (b *Bridge) RefreshPremium(ctx context.Context) bool {
	identity := b.Identity()
	if identity == nil {
		return false
	}
	premium := b.lookupPremium(ctx, identity.ID)

	b.mu.Lock()
	changed := b.session != nil && b.session.User.ID == identity.ID && b.isPremium != premium
	if changed {
		b.isPremium = premium
	}
	b.mu.Unlock()

	if changed {
		b.observers.emit(Change{Identity: identity, Premium: premium})
	}
	return premium
}

// Subscribe enregistre fn ; la fonction retournée est l'unique moyen de la retirer
func (b *Bridge) Subscribe(fn func(Change)) func() {
	return b.observers.add(fn)
}

// Close se désabonne du fournisseur et retire tous les observateurs
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		if b.unsubscribe != nil {
			b.unsubscribe()
		}
		b.observers.reset()
	})
}

func (b *Bridge) setSession(ctx context.Context, session *Session) {
	premium := false
	if session != nil {
		premium = b.lookupPremium(ctx, session.User.ID)
	}

	b.mu.Lock()
	prevID := ""
	if b.session != nil {
		prevID = b.session.User.ID
	}
	newID := ""
	if session != nil {
		newID = session.User.ID
	}
	changed := prevID != newID || b.isPremium != premium
	b.session = session
	b.isPremium = premium
	b.loading = false
	b.mu.Unlock()

	if changed {
		b.observers.emit(Change{Identity: b.Identity(), Premium: premium})
	}
}

func (b *Bridge) lookupPremium(ctx context.Context, userID string) bool {
	if b.premium == nil {
		return false
	}
	premium, err := b.premium.IsPremium(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Vérification premium échouée pour %s: %v", userID, err)
		return false
	}
	return premium
}

// handleEvent applique les changements de session signalés par le fournisseur
// pour l'utilisateur de ce bridge.
func (b *Bridge) handleEvent(ev Event) {
	b.mu.Lock()
	if b.session == nil || b.session.User.ID != ev.UserID {
		b.mu.Unlock()
		return
	}

	switch ev.Type {
	case EventSignedOut:
		if ev.TokenID != "" && ev.TokenID != b.session.TokenID {
			b.mu.Unlock()
			return
		}
		b.session = nil
		b.isPremium = false
		b.mu.Unlock()
		log.Printf("🔒 Session révoquée pour %s", ev.UserID)
		b.observers.emit(Change{})
		return

	case EventTokenRefreshed:
		if ev.Session != nil && ev.TokenID == b.session.TokenID {
			b.session = ev.Session
		}
	}
	b.mu.Unlock()
}

func asAuthError(op string, err error) error {
	if authErr, ok := err.(*AuthError); ok {
		return authErr
	}
	return newAuthError(op, err.Error())
}
