// Package auth expose l'identité de la session navigateur au reste de
// l'application et délègue l'authentification à un Provider.
package auth

import (
	"context"
	"time"

	"shopblog_back_end/internal/models"
)

type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Session est une session émise par le fournisseur
type Session struct {
	AccessToken string          `json:"access_token"`
	TokenID     string          `json:"-"`
	ExpiresAt   time.Time       `json:"expires_at"`
	User        models.Identity `json:"user"`
}

// Event notifie un changement de session. TokenID vide sur un SIGNED_OUT
// signifie que toutes les sessions de l'utilisateur sont révoquées.
type Event struct {
	Type    EventType
	UserID  string
	TokenID string
	Session *Session
}

// Provider est le service d'authentification externe
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	SignOutAll(ctx context.Context, userID string) error
	RefreshSession(ctx context.Context, accessToken string) (*Session, error)
	// GetSession retourne nil, nil quand le jeton n'ouvre aucune session
	GetSession(ctx context.Context, accessToken string) (*Session, error)
	GetUser(ctx context.Context, accessToken string) (*models.Identity, error)
	OnAuthStateChange(fn func(Event)) (unsubscribe func())
}

// PremiumChecker indique si un utilisateur a un abonnement premium
type PremiumChecker interface {
	IsPremium(ctx context.Context, userID string) (bool, error)
}
