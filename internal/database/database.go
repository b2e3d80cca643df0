package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"

	"shopblog_back_end/internal/config"
	"shopblog_back_end/internal/repository"
)

// --- Configuration ScyllaDB ---
type ScyllaKeyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	SSLEnabled  bool
	CACertPath  string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
	Schema      []string
}

// Clients regroupe les connexions ouvertes au démarrage
type Clients struct {
	Users    *gocql.Session
	Products *gocql.Session
	Orders   *gocql.Session
	Redis    *redis.Client
	Elastic  *elasticsearch.Client // nil si non configuré ou injoignable
	MinIO    *minio.Client
}

// Connect ouvre toutes les connexions. Elasticsearch est optionnel : la
// recherche se replie sur ScyllaDB sans lui.
func Connect(ctx context.Context, cfg config.Config) (*Clients, error) {
	clients := &Clients{}

	keyspaces := keyspaceConfigs(cfg.Scylla)
	sessions := []**gocql.Session{&clients.Users, &clients.Products, &clients.Orders}
	for i, ks := range keyspaces {
		session, err := openScylla(ks, cfg.Scylla.AutoMigrate)
		if err != nil {
			clients.Close()
			return nil, err
		}
		*sessions[i] = session
	}

	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		clients.Close()
		return nil, err
	}
	clients.Redis = rdb

	clients.Elastic = connectElastic(cfg)

	mc, err := connectMinIO(cfg)
	if err != nil {
		clients.Close()
		return nil, err
	}
	clients.MinIO = mc

	log.Println("✅ Toutes les bases de données sont connectées")
	return clients, nil
}

// Close ferme les connexions ouvertes
func (c *Clients) Close() {
	for name, s := range map[string]*gocql.Session{"users": c.Users, "products": c.Products, "orders": c.Orders} {
		if s != nil {
			s.Close()
			log.Printf("🔌 Session ScyllaDB fermée pour '%s'", name)
		}
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

// keyspaceConfigs retourne users, products, orders dans cet ordre
func keyspaceConfigs(cfg config.Scylla) []ScyllaKeyspaceConfig {
	build := func(ks config.Keyspace, schema []string) ScyllaKeyspaceConfig {
		return ScyllaKeyspaceConfig{
			Hosts:       cfg.Hosts,
			Keyspace:    ks.Name,
			Username:    ks.Role,
			Password:    ks.Password,
			SSLEnabled:  cfg.SSLEnabled,
			CACertPath:  cfg.CACertPath,
			Timeout:     5 * time.Second,
			NumConns:    20,
			Consistency: gocql.Quorum,
			Schema:      schema,
		}
	}
	return []ScyllaKeyspaceConfig{
		build(cfg.Users, repository.UsersSchema),
		build(cfg.Products, repository.ProductsSchema),
		build(cfg.Orders, repository.OrdersSchema),
	}
}

// createScyllaCluster crée une configuration de cluster pour un keyspace
func createScyllaCluster(config ScyllaKeyspaceConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Keyspace = config.Keyspace
	cluster.Consistency = config.Consistency
	cluster.Timeout = config.Timeout
	cluster.NumConns = config.NumConns

	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	if config.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}
	if config.SSLEnabled {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 config.CACertPath,
			EnableHostVerification: config.CACertPath != "",
		}
	}

	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

func openScylla(config ScyllaKeyspaceConfig, migrate bool) (*gocql.Session, error) {
	if config.Keyspace == "" {
		return nil, errors.New("keyspace ScyllaDB non configuré")
	}

	session, err := createScyllaCluster(config).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", config.Keyspace, err)
	}
	log.Printf("✅ Nouvelle session ScyllaDB pour keyspace '%s' (utilisateur: %s)", config.Keyspace, config.Username)

	if migrate {
		if err := repository.EnsureSchema(session, config.Schema); err != nil {
			session.Close()
			return nil, fmt.Errorf("migration %s: %w", config.Keyspace, err)
		}
	}
	return session, nil
}

func connectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisHost,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("erreur connexion Redis: %w", err)
	}
	log.Println("✅ Connecté à Redis")
	return rdb, nil
}

func connectElastic(cfg config.Config) *elasticsearch.Client {
	if cfg.ElasticURL == "" {
		log.Println("⚠️ ELASTIC_URL absent, recherche en mode repli")
		return nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		log.Println("⚠️ Erreur création client Elasticsearch:", err)
		return nil
	}

	res, err := client.Info()
	if err != nil {
		log.Println("⚠️ Elasticsearch injoignable, recherche en mode repli:", err)
		return nil
	}
	defer res.Body.Close()

	log.Println("✅ Connecté à Elasticsearch")
	return client
}

func connectMinIO(cfg config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("erreur connexion MinIO: %w", err)
	}
	log.Println("✅ Connecté à MinIO :", cfg.MinIO.Endpoint)
	return client, nil
}
