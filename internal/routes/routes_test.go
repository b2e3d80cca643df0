package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"shopblog_back_end/internal/handlers/blog"
	pa "shopblog_back_end/internal/handlers/payement"
	"shopblog_back_end/internal/handlers/product"
	"shopblog_back_end/internal/handlers/user"
	"shopblog_back_end/internal/middleware"
	"shopblog_back_end/internal/services"
	"shopblog_back_end/internal/session"
	"shopblog_back_end/internal/testutil"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := testutil.NewEnv(t)
	reg := session.NewRegistry(env.Provider, env.Premium, env.Remote, env.Guest, time.Minute)
	t.Cleanup(reg.Close)

	r := gin.New()
	RegisterRoutes(r, Handlers{
		Auth:     user.NewAuthHandler(env.Provider),
		Cart:     user.NewCartHandler(nil),
		Profile:  user.NewProfileHandler(nil),
		Orders:   user.NewOrderHandler(nil),
		Products: product.NewProductHandler(nil, nil, nil, services.NewSearchIndex(nil, "products")),
		Blogs:    blog.NewBlogHandler(nil, nil, nil, services.NewSearchIndex(nil, "blogs")),
		Checkout: pa.NewCheckoutHandler(nil),
		Webhook:  pa.NewWebhookHandler(nil),
	}, Options{
		Registry:    reg,
		Cookies:     session.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"), false),
		RateLimiter: middleware.NewRateLimiter(env.RDB),
		IPLimiter:   middleware.NewIPLimiter(rate.Inf, 1),
		CORSOrigins: []string{"http://localhost:5173"},
	})
	return r
}

func TestAllRoutesRegistered(t *testing.T) {
	r := newRouter(t)

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/register", "POST /api/auth/login", "POST /api/auth/logout",
		"POST /api/auth/logout-all", "GET /api/auth/me",
		"GET /api/cart", "POST /api/cart/add", "DELETE /api/cart/:id", "DELETE /api/cart/clear", "GET /api/cart/ws",
		"POST /api/create-checkout-session", "POST /api/create-premium-session", "POST /api/stripe/webhook",
		"GET /api/products", "GET /api/products/:id", "GET /api/products/search", "POST /api/products",
		"PUT /api/products/:id", "DELETE /api/products/delete", "POST /api/products/images",
		"GET /api/blogs", "GET /api/blogs/:id", "GET /api/blogs/search", "POST /api/blogs",
		"PUT /api/blogs/:id", "DELETE /api/blogs/:id", "POST /api/blogs/images",
		"GET /api/profile", "PUT /api/profile", "GET /api/orders",
		"GET /api/preferences", "PUT /api/preferences",
	} {
		if !registered[want] {
			t.Errorf("route %s missing", want)
		}
	}
}

func TestAnonymousCartThroughRouter(t *testing.T) {
	r := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/cart/add", strings.NewReader(`{"id":"p1","name":"Lampe","price":4,"quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("add: %d %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Name != session.CookieName {
		t.Fatalf("session cookie not set: %v", cookies)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"count":2`) {
		t.Fatalf("cart = %s", w.Body.String())
	}
}

func TestPrivateRoutesRequireIdentity(t *testing.T) {
	r := newRouter(t)
	for _, path := range []string{"/api/profile", "/api/orders"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/blogs", strings.NewReader(`{}`)))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("create blog: status = %d", w.Code)
	}
}
