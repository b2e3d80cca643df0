package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// Keyspace : nom et rôle ScyllaDB d'un keyspace
type Keyspace struct {
	Name     string
	Role     string
	Password string
}

type Scylla struct {
	Hosts       []string
	SSLEnabled  bool
	CACertPath  string
	AutoMigrate bool
	Users       Keyspace
	Products    Keyspace
	Orders      Keyspace
}

type MinIO struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	ProductBucket string
	BlogBucket    string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Config struct {
	Port    string
	AppURL  string
	BaseURL string

	JWTSecret      string
	SessionSecret  string
	SessionIdleTTL time.Duration
	CookieSecure   bool

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeCurrency      string
	PremiumPriceCents   int64

	Scylla Scylla

	RedisHost     string
	RedisPassword string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	MinIO MinIO
	SMTP  SMTP

	CORSOrigins []string
}

// FromEnv lit la configuration ; les valeurs absentes prennent leur défaut
func FromEnv() Config {
	baseURL := getEnv("BASE_URL", "http://localhost:8080")
	return Config{
		Port:    getEnv("PORT", "8080"),
		AppURL:  strings.TrimRight(getEnv("APP_URL", "http://localhost:5173"), "/"),
		BaseURL: baseURL,

		JWTSecret:      os.Getenv("JWT_SECRET"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		SessionIdleTTL: getDuration("SESSION_IDLE_TTL", 30*time.Minute),
		CookieSecure:   strings.HasPrefix(baseURL, "https://"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeCurrency:      strings.ToLower(getEnv("STRIPE_CURRENCY", "usd")),
		PremiumPriceCents:   int64(getInt("PREMIUM_PRICE_CENTS", 10000)),

		Scylla: Scylla{
			Hosts:       splitList(getEnv("SCYLLA_HOSTS", "127.0.0.1")),
			SSLEnabled:  getBool("SCYLLA_SSL_ENABLED"),
			CACertPath:  os.Getenv("SCYLLA_SSL_CA_PATH"),
			AutoMigrate: getBool("SCYLLA_AUTO_MIGRATE"),
			Users:       keyspace("USERS", "shopblog_users"),
			Products:    keyspace("PRODUCTS", "shopblog_products"),
			Orders:      keyspace("ORDERS", "shopblog_orders"),
		},

		RedisHost:     getEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),

		MinIO: MinIO{
			Endpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:     os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey:     os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:        getBool("MINIO_USE_SSL"),
			ProductBucket: bucketName(getEnv("MINIO_PRODUCT_BUCKET", "productimage")),
			BlogBucket:    bucketName(getEnv("MINIO_BLOG_BUCKET", "blog_images")),
		},

		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "no-reply@shopblog.local"),
		},

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
	}
}

// Validate vérifie les secrets sans lesquels le serveur ne démarre pas
func (c Config) Validate() error {
	var errs []error
	if c.StripeSecretKey == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY manquant"))
	}
	if c.StripeWebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET manquant"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET manquant"))
	}
	if len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET manquant ou trop court (32 caractères min)"))
	}
	return errors.Join(errs...)
}

func keyspace(name, def string) Keyspace {
	prefix := "SCYLLA_KS_" + name + "_"
	return Keyspace{
		Name:     getEnv(prefix+"KEYSPACE", def),
		Role:     os.Getenv(prefix + "ROLE"),
		Password: os.Getenv(prefix + "PASSWORD"),
	}
}

// bucketName : S3 n'accepte pas les "_" dans un nom de bucket
func bucketName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "-")
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
