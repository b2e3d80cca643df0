package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"shopblog_back_end/internal/models"
)

const (
	CookieName = "shopblog_session"

	contextKey       = "session"
	cookieContextKey = "session_cookie"
	loaderContextKey = "session_loader"
	resolveTimeout   = 10 * time.Second

	keySID    = "sid"
	keyToken  = "access_token"
	keyTheme  = "theme"
	keyLocale = "locale"
)

// NewCookieStore configure le cookie signé de session navigateur
func NewCookieStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Middleware prépare la Session du navigateur. Elle n'est créée qu'au premier
// From : une requête qui n'en a pas besoin (catalogue, santé) ne coûte ni
// session ni cookie. Un cookie absent ou illisible ouvre une session anonyme.
func Middleware(reg *Registry, store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		cs, _ := store.Get(c.Request, CookieName)
		c.Set(cookieContextKey, cs)

		c.Set(loaderContextKey, func() *Session {
			sid, _ := cs.Values[keySID].(string)
			isNew := sid == ""
			if isNew {
				sid = uuid.NewString()
				cs.Values[keySID] = sid
			}
			token, _ := cs.Values[keyToken].(string)

			ctx, cancel := context.WithTimeout(c.Request.Context(), resolveTimeout)
			defer cancel()
			s := reg.Get(ctx, sid, token, cookiePreferences(cs))

			if isNew {
				_ = cs.Save(c.Request, c.Writer)
			}
			return s
		})
		c.Next()
	}
}

// Attach pose s sur le contexte gin
func Attach(c *gin.Context, s *Session) {
	c.Set(contextKey, s)
}

// From retourne la Session du navigateur, créée au premier appel de la requête
func From(c *gin.Context) *Session {
	if v, ok := c.Get(contextKey); ok {
		return v.(*Session)
	}
	load := c.MustGet(loaderContextKey).(func() *Session)
	s := load()
	Attach(c, s)
	return s
}

// Save réécrit le cookie depuis l'état de la session (jeton, préférences)
func Save(c *gin.Context) error {
	s := From(c)
	cs, ok := c.Value(cookieContextKey).(*sessions.Session)
	if !ok {
		return nil
	}

	prefs := s.Preferences()
	cs.Values[keySID] = s.ID
	cs.Values[keyToken] = s.Bridge.AccessToken()
	cs.Values[keyTheme] = prefs.Theme
	cs.Values[keyLocale] = prefs.Locale
	return cs.Save(c.Request, c.Writer)
}

func cookiePreferences(cs *sessions.Session) models.Preferences {
	prefs := models.DefaultPreferences()
	if theme, _ := cs.Values[keyTheme].(string); models.ValidTheme(theme) {
		prefs.Theme = theme
	}
	if locale, _ := cs.Values[keyLocale].(string); models.ValidLocale(locale) {
		prefs.Locale = locale
	}
	return prefs
}
