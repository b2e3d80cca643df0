package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/session"
	"shopblog_back_end/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withSession pose une session de test sans passer par le cookie
func withSession(s *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		session.Attach(c, s)
		c.Next()
	}
}

func TestAuthRequired(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	reg := session.NewRegistry(env.Provider, env.Premium, env.Remote, env.Guest, time.Minute)
	defer reg.Close()
	account := env.SignUp(t, "ana@example.com", "motdepasse")

	for _, tc := range []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"signed in", account.AccessToken, http.StatusOK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := reg.Get(ctx, "sid-"+tc.name, tc.token, models.DefaultPreferences())
			r := gin.New()
			r.GET("/private", withSession(s), AuthRequired(), func(c *gin.Context) {
				c.String(http.StatusOK, c.GetString("user_id"))
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
			if tc.want == http.StatusOK && w.Body.String() != account.User.ID {
				t.Fatalf("user_id = %q", w.Body.String())
			}
		})
	}
}

func TestPremiumRequired(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	reg := session.NewRegistry(env.Provider, env.Premium, env.Remote, env.Guest, time.Minute)
	defer reg.Close()
	account := env.SignUp(t, "ben@example.com", "motdepasse")

	s := reg.Get(ctx, "sid-1", account.AccessToken, models.DefaultPreferences())
	r := gin.New()
	r.POST("/blogs", withSession(s), AuthRequired(), PremiumRequired(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/blogs", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	// le webhook écrit la ligne premium : la requête suivante la voit
	env.Premium.Set(account.User.ID, true)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/blogs", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if !s.Bridge.IsPremium() {
		t.Fatalf("bridge premium flag not refreshed")
	}
}

func TestLoginRateLimitBlocksAfterFailures(t *testing.T) {
	env := testutil.NewEnv(t)
	rl := NewRateLimiter(env.RDB)

	r := gin.New()
	r.POST("/login", rl.LoginRateLimit(), func(c *gin.Context) {
		c.Status(http.StatusUnauthorized)
	})

	send := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"Eve@example.com"}`))
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < LoginMaxAttempts; i++ {
		if code := send(); code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d", i+1, code)
		}
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", code)
	}
	if !env.Redis.Exists("login_cooldown:eve@example.com") {
		t.Fatalf("cooldown not recorded")
	}
}

func TestLoginRateLimitKeepsBody(t *testing.T) {
	env := testutil.NewEnv(t)
	rl := NewRateLimiter(env.RDB)

	r := gin.New()
	r.POST("/login", rl.LoginRateLimit(), func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@example.com"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("body consumed by rate limiter: %d", w.Code)
	}
}

func TestSearchRateLimitWindow(t *testing.T) {
	env := testutil.NewEnv(t)
	rl := NewRateLimiter(env.RDB)

	r := gin.New()
	r.GET("/search", rl.SearchRateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < SearchMaxRequests; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, w.Code)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}

	env.Redis.FastForward(time.Minute + time.Second)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("window not reset: %d", w.Code)
	}
}

func TestIPLimiter(t *testing.T) {
	l := NewIPLimiter(rate.Every(time.Hour), 2)
	r := gin.New()
	r.Use(l.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	// une autre IP a son propre quota
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("second ip limited: %d", w.Code)
	}
}
