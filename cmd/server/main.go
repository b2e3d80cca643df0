package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"shopblog_back_end/internal/auth"
	"shopblog_back_end/internal/cache"
	"shopblog_back_end/internal/cart"
	"shopblog_back_end/internal/checkout"
	"shopblog_back_end/internal/config"
	"shopblog_back_end/internal/database"
	"shopblog_back_end/internal/handlers/blog"
	pa "shopblog_back_end/internal/handlers/payement"
	"shopblog_back_end/internal/handlers/product"
	"shopblog_back_end/internal/handlers/user"
	"shopblog_back_end/internal/middleware"
	"shopblog_back_end/internal/repository"
	"shopblog_back_end/internal/routes"
	"shopblog_back_end/internal/services"
	"shopblog_back_end/internal/session"
)

func main() {
	config.Load()
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Configuration invalide: %v", err)
	}

	gateway := checkout.NewStripeGateway(cfg.StripeSecretKey)
	log.Println("✅ Stripe initialisé")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	clients, err := database.Connect(connectCtx, cfg)
	if err != nil {
		log.Fatalf("❌ Connexion aux bases impossible: %v", err)
	}
	defer clients.Close()

	productImages := services.NewStorage(clients.MinIO, cfg.MinIO.ProductBucket, cfg.MinIO.Endpoint, cfg.MinIO.UseSSL)
	blogImages := services.NewStorage(clients.MinIO, cfg.MinIO.BlogBucket, cfg.MinIO.Endpoint, cfg.MinIO.UseSSL)
	if err := productImages.EnsureBucket(connectCtx, false); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := blogImages.EnsureBucket(connectCtx, true); err != nil {
		log.Fatalf("❌ %v", err)
	}

	// Dépôts
	users := repository.NewUserRepository(clients.Users)
	carts := repository.NewCartRepository(clients.Users)
	profiles := repository.NewProfileRepository(clients.Users)
	premium := repository.NewPremiumRepository(clients.Users)
	products := repository.NewProductRepository(clients.Products)
	blogs := repository.NewBlogRepository(clients.Products)
	orders := repository.NewOrderRepository(clients.Orders)

	provider := auth.NewLocalProvider(users, cache.NewTokenStore(clients.Redis), []byte(cfg.JWTSecret))
	registry := session.NewRegistry(provider, premium, cart.NewRemoteStore(carts), cart.NewGuestStore(clients.Redis), cfg.SessionIdleTTL)
	defer registry.Close()
	go registry.Run(ctx)

	initiator := checkout.NewInitiator(gateway, orders, checkout.Config{
		AppURL:            cfg.AppURL,
		Currency:          cfg.StripeCurrency,
		PremiumPriceCents: cfg.PremiumPriceCents,
	})
	mailer := services.NewMailer(services.MailConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if !mailer.Enabled() {
		log.Println("⚠️ SMTP_HOST absent, pas d'e-mail de confirmation")
	}

	r := gin.Default()
	routes.RegisterRoutes(r, routes.Handlers{
		Auth:     user.NewAuthHandler(provider),
		Cart:     user.NewCartHandler(products),
		Profile:  user.NewProfileHandler(profiles),
		Orders:   user.NewOrderHandler(orders),
		Products: product.NewProductHandler(products, productImages, cache.NewProductCache(clients.Redis), services.NewSearchIndex(clients.Elastic, "products", "name", "description")),
		Blogs:    blog.NewBlogHandler(blogs, profiles, blogImages, services.NewSearchIndex(clients.Elastic, "blogs", "title", "content")),
		Checkout: pa.NewCheckoutHandler(initiator),
		Webhook:  pa.NewWebhookHandler(checkout.NewWebhookProcessor(cfg.StripeWebhookSecret, premium, orders, mailer)),
	}, routes.Options{
		Registry:    registry,
		Cookies:     session.NewCookieStore([]byte(cfg.SessionSecret), cfg.CookieSecure),
		RateLimiter: middleware.NewRateLimiter(clients.Redis),
		IPLimiter:   middleware.NewIPLimiter(rate.Limit(20), 40),
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Println("🚀 Serveur shopblog lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Serveur arrêté: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Arrêt du serveur...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Arrêt forcé: %v", err)
	}
}
