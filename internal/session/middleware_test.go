package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"shopblog_back_end/internal/models"
)

func TestMiddlewareBindsSessionToCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg, _ := newTestRegistry(t)
	store := NewCookieStore([]byte("cookie-secret-de-test-32-octets!"), false)

	r := gin.New()
	r.Use(Middleware(reg, store))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, From(c).ID)
	})
	r.PUT("/dark", func(c *gin.Context) {
		s := From(c)
		if _, err := s.SetPreferences(models.Preferences{Theme: models.ThemeDark}); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		_ = Save(c)
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	cookies := first.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no session cookie set")
	}

	second := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(cookies[0])
	r.ServeHTTP(second, req)
	if second.Body.String() != first.Body.String() {
		t.Fatalf("cookie did not restore the session: %q vs %q", second.Body.String(), first.Body.String())
	}

	// le cookie porte les préférences : une session recréée les retrouve
	put := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/dark", nil)
	req.AddCookie(cookies[0])
	r.ServeHTTP(put, req)
	updated := put.Result().Cookies()
	if len(updated) == 0 {
		t.Fatalf("cookie not rewritten")
	}

	reg.Close()
	third := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(updated[0])
	r.ServeHTTP(third, req)

	s := reg.Get(req.Context(), third.Body.String(), "", models.DefaultPreferences())
	if s.Preferences().Theme != models.ThemeDark {
		t.Fatalf("theme not restored from cookie: %+v", s.Preferences())
	}
}

func TestMiddlewareCreatesSessionOnlyWhenUsed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg, _ := newTestRegistry(t)
	store := NewCookieStore([]byte("cookie-secret-de-test-32-octets!"), false)

	r := gin.New()
	r.Use(Middleware(reg, store))
	r.GET("/public", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/whoami", func(c *gin.Context) { c.String(http.StatusOK, From(c).ID) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public", nil))
		if len(w.Result().Cookies()) != 0 {
			t.Fatalf("cookie set on a request that never used the session")
		}
	}
	if reg.Len() != 0 {
		t.Fatalf("len = %d, want 0", reg.Len())
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if reg.Len() != 1 || len(w.Result().Cookies()) == 0 {
		t.Fatalf("session not created on first use: len=%d", reg.Len())
	}
}
