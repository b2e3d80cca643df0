package repository

import (
	"fmt"
	"log"

	"github.com/gocql/gocql"
)

// Tables par keyspace. Appliquées au démarrage si SCYLLA_AUTO_MIGRATE=true,
// sinon à créer manuellement.
var (
	UsersSchema = []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id text PRIMARY KEY,
			email text,
			password text,
			created_at timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS users_by_email (
			email text PRIMARY KEY,
			user_id text
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			user_id text PRIMARY KEY,
			items text,
			updated_at timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id text PRIMARY KEY,
			first_name text,
			last_name text,
			phone text,
			birth_date text,
			email text
		)`,
		`CREATE TABLE IF NOT EXISTS premium_users (
			user_id text PRIMARY KEY,
			status text,
			subscription_id text,
			created_at timestamp
		)`,
	}

	ProductsSchema = []string{
		`CREATE TABLE IF NOT EXISTS products (
			product_id uuid PRIMARY KEY,
			name text,
			description text,
			price double,
			images list<text>,
			user_id text,
			created_at timestamp,
			updated_at timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS blogs (
			blog_id uuid PRIMARY KEY,
			author_id text,
			title text,
			content text,
			images list<text>,
			created_at timestamp,
			updated_at timestamp
		)`,
	}

	OrdersSchema = []string{
		`CREATE TABLE IF NOT EXISTS orders (
			user_id text,
			created_at timestamp,
			order_id uuid,
			stripe_session_id text,
			items text,
			total_price double,
			status text,
			PRIMARY KEY (user_id, created_at, order_id)
		) WITH CLUSTERING ORDER BY (created_at DESC, order_id ASC)`,
		`CREATE TABLE IF NOT EXISTS orders_by_session (
			stripe_session_id text PRIMARY KEY,
			user_id text,
			created_at timestamp,
			order_id uuid
		)`,
	}
)

// EnsureSchema crée les tables manquantes du keyspace de session
func EnsureSchema(session *gocql.Session, statements []string) error {
	for _, stmt := range statements {
		if err := session.Query(stmt).Exec(); err != nil {
			return fmt.Errorf("migration échouée: %w", err)
		}
	}
	log.Printf("✅ Schéma vérifié (%d tables)", len(statements))
	return nil
}
