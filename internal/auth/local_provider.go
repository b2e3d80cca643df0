package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/repository"
	"shopblog_back_end/internal/utils"
)

const MinPasswordLength = 6

var validate = validator.New()

// UserStore est la table des comptes locaux
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// TokenRevoker garde les révocations de jetons (voir cache.TokenStore)
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, tokenID string, duration time.Duration) error
	IsTokenBlacklisted(ctx context.Context, tokenID string) bool
	RevokeAllSessions(ctx context.Context, userID string, at time.Time, duration time.Duration) error
	RevokedBefore(ctx context.Context, userID string) (int64, bool)
}

// LocalProvider authentifie par email / mot de passe : comptes dans ScyllaDB,
// hash Argon2id, jetons JWT HS256 révocables via Redis.
type LocalProvider struct {
	users  UserStore
	tokens TokenRevoker
	secret []byte
	now    func() time.Time
	events observers[Event]
}

func NewLocalProvider(users UserStore, tokens TokenRevoker, secret []byte) *LocalProvider {
	return &LocalProvider{
		users:  users,
		tokens: tokens,
		secret: secret,
		now:    time.Now,
	}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, newAuthError("signup", "Adresse email invalide")
	}
	if len(password) < MinPasswordLength {
		return nil, newAuthError("signup", "Le mot de passe doit contenir au moins 6 caractères")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  hash,
		CreatedAt: p.now().UTC(),
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, newAuthError("signup", "Un compte avec cet email existe déjà")
		}
		return nil, err
	}

	log.Printf("✅ Compte créé: %s", email)
	return p.issue(models.Identity{ID: user.ID, Email: user.Email}, EventSignedIn)
}

func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	user, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newAuthError("signin", "Email ou mot de passe incorrect")
		}
		return nil, err
	}

	ok, err := utils.VerifyPassword(password, user.Password)
	if err != nil {
		log.Printf("⚠️ Hash illisible pour %s: %v", email, err)
	}
	if !ok {
		return nil, newAuthError("signin", "Email ou mot de passe incorrect")
	}

	return p.issue(models.Identity{ID: user.ID, Email: user.Email}, EventSignedIn)
}

// SignOut révoque le jeton jusqu'à son expiration. Un jeton déjà invalide
// n'est pas une erreur.
func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	claims, err := utils.ParseJWT(p.secret, accessToken)
	if err != nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := p.tokens.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		return err
	}

	p.events.emit(Event{Type: EventSignedOut, UserID: claims.UserID, TokenID: claims.ID})
	return nil
}

// SignOutAll révoque tous les jetons de userID émis jusqu'à maintenant
func (p *LocalProvider) SignOutAll(ctx context.Context, userID string) error {
	if err := p.tokens.RevokeAllSessions(ctx, userID, p.now(), utils.AccessTokenTTL); err != nil {
		return err
	}
	p.events.emit(Event{Type: EventSignedOut, UserID: userID})
	return nil
}

// RefreshSession échange un jeton valide contre un nouveau et révoque l'ancien
func (p *LocalProvider) RefreshSession(ctx context.Context, accessToken string) (*Session, error) {
	current, err := p.GetSession(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, newAuthError("refresh", "Session invalide ou expirée")
	}

	next, err := p.issue(current.User, "")
	if err != nil {
		return nil, err
	}
	if err := p.tokens.BlacklistToken(ctx, current.TokenID, time.Until(current.ExpiresAt)); err != nil {
		log.Printf("⚠️ Révocation de l'ancien jeton échouée: %v", err)
	}

	p.events.emit(Event{Type: EventTokenRefreshed, UserID: current.User.ID, TokenID: current.TokenID, Session: next})
	return next, nil
}

func (p *LocalProvider) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, nil
	}
	claims, err := utils.ParseJWT(p.secret, accessToken)
	if err != nil {
		return nil, nil
	}
	if p.tokens.IsTokenBlacklisted(ctx, claims.ID) {
		return nil, nil
	}
	// Un jeton émis dans la seconde d'une révocation globale est aussi rejeté
	if cutoff, ok := p.tokens.RevokedBefore(ctx, claims.UserID); ok && claims.IssuedAt != nil && claims.IssuedAt.Unix() <= cutoff {
		return nil, nil
	}

	return &Session{
		AccessToken: accessToken,
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        models.Identity{ID: claims.UserID, Email: claims.Email},
	}, nil
}

// GetUser vérifie le jeton puis relit le compte (un compte supprimé n'a plus de session)
func (p *LocalProvider) GetUser(ctx context.Context, accessToken string) (*models.Identity, error) {
	session, err := p.GetSession(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, newAuthError("getUser", "Session invalide ou expirée")
	}

	user, err := p.users.GetUserByID(ctx, session.User.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newAuthError("getUser", "Utilisateur introuvable")
		}
		return nil, err
	}
	return &models.Identity{ID: user.ID, Email: user.Email}, nil
}

func (p *LocalProvider) OnAuthStateChange(fn func(Event)) func() {
	return p.events.add(fn)
}

func (p *LocalProvider) issue(identity models.Identity, event EventType) (*Session, error) {
	token, claims, err := utils.GenerateJWT(p.secret, identity, p.now())
	if err != nil {
		return nil, err
	}

	session := &Session{
		AccessToken: token,
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        identity,
	}
	if event != "" {
		p.events.emit(Event{Type: event, UserID: identity.ID, TokenID: claims.ID, Session: session})
	}
	return session, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
