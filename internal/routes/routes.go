package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"shopblog_back_end/internal/handlers/blog"
	pa "shopblog_back_end/internal/handlers/payement"
	"shopblog_back_end/internal/handlers/product"
	"shopblog_back_end/internal/handlers/user"
	"shopblog_back_end/internal/middleware"
	"shopblog_back_end/internal/session"
)

type Handlers struct {
	Auth     *user.AuthHandler
	Cart     *user.CartHandler
	Profile  *user.ProfileHandler
	Orders   *user.OrderHandler
	Products *product.ProductHandler
	Blogs    *blog.BlogHandler
	Checkout *pa.CheckoutHandler
	Webhook  *pa.WebhookHandler
}

type Options struct {
	Registry    *session.Registry
	Cookies     sessions.Store
	RateLimiter *middleware.RateLimiter
	IPLimiter   *middleware.IPLimiter
	CORSOrigins []string
}

func CORSMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	return cors.New(cfg)
}

func RegisterRoutes(r *gin.Engine, h Handlers, opts Options) {
	r.Use(CORSMiddleware(opts.CORSOrigins))
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	// Stripe appelle sans cookie : hors session
	r.POST("/api/stripe/webhook", h.Webhook.StripeWebhook)

	api := r.Group("/api", opts.IPLimiter.Middleware(), session.Middleware(opts.Registry, opts.Cookies))
	rl := opts.RateLimiter

	// Auth
	a := api.Group("/auth")
	{
		a.POST("/register", rl.RegisterRateLimit(), h.Auth.Register)
		a.POST("/login", rl.LoginRateLimit(), h.Auth.Login)
		a.POST("/logout", h.Auth.Logout)
		a.GET("/me", h.Auth.Me)
		a.POST("/logout-all", middleware.AuthRequired(), h.Auth.LogoutAll)
	}

	// Panier (anonyme ou connecté)
	cart := api.Group("/cart")
	{
		cart.GET("", h.Cart.GetCart)
		cart.GET("/ws", h.Cart.CartWebSocket(user.NewUpgrader(opts.CORSOrigins)))
		cart.POST("/add", rl.CartRateLimit(), h.Cart.AddToCart)
		cart.DELETE("/clear", h.Cart.ClearCart)
		cart.DELETE("/:id", rl.CartRateLimit(), h.Cart.RemoveFromCart)
	}

	// Préférences
	api.GET("/preferences", user.GetPreferences)
	api.PUT("/preferences", user.UpdatePreferences)

	// Paiement
	api.POST("/create-checkout-session", h.Checkout.CreateCheckoutSession)
	api.POST("/create-premium-session", h.Checkout.CreatePremiumSession)

	// Produits
	p := api.Group("/products")
	{
		p.GET("", h.Products.GetAllProducts)
		p.GET("/search", rl.SearchRateLimit(), h.Products.SearchProducts)
		p.GET("/:id", h.Products.GetProduct)
	}
	pAuth := p.Group("", middleware.AuthRequired())
	{
		pAuth.POST("", h.Products.CreateProduct)
		pAuth.POST("/images", h.Products.UploadProductImage)
		pAuth.PUT("/:id", h.Products.UpdateProduct)
		pAuth.DELETE("/delete", h.Products.DeleteProduct)
	}

	// Blogs
	b := api.Group("/blogs")
	{
		b.GET("", h.Blogs.GetAllBlogs)
		b.GET("/search", rl.SearchRateLimit(), h.Blogs.SearchBlogs)
		b.GET("/:id", h.Blogs.GetBlog)
	}
	bAuth := b.Group("", middleware.AuthRequired())
	{
		bAuth.POST("", middleware.PremiumRequired(), h.Blogs.CreateBlog)
		bAuth.POST("/images", middleware.PremiumRequired(), h.Blogs.UploadBlogImage)
		bAuth.PUT("/:id", h.Blogs.UpdateBlog)
		bAuth.DELETE("/:id", h.Blogs.DeleteBlog)
	}

	// Compte
	me := api.Group("", middleware.AuthRequired())
	{
		me.GET("/profile", h.Profile.GetProfile)
		me.PUT("/profile", h.Profile.UpdateProfile)
		me.GET("/orders", h.Orders.GetMyOrders)
	}
}
