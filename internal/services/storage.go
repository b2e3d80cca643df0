package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// Storage est un bucket MinIO. Les produits y sont lus par URL signée, les
// images de blog par URL publique.
type Storage struct {
	client   *minio.Client
	bucket   string
	endpoint string
	secure   bool
}

func NewStorage(client *minio.Client, bucket, endpoint string, secure bool) *Storage {
	return &Storage{client: client, bucket: bucket, endpoint: endpoint, secure: secure}
}

func (s *Storage) Bucket() string {
	return s.bucket
}

// EnsureBucket crée le bucket s'il n'existe pas ; public ouvre la lecture anonyme
func (s *Storage) EnsureBucket(ctx context.Context, public bool) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("vérification bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("création bucket %s: %w", s.bucket, err)
		}
		log.Println("🪣 Bucket créé :", s.bucket)
	}
	if public {
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, s.bucket)
		if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
			return fmt.Errorf("politique publique %s: %w", s.bucket, err)
		}
	}
	return nil
}

func (s *Storage) Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectPath, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return nil
}

// SignedURL accepte un chemin d'objet ou une URL déjà complète du bucket
func (s *Storage) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	key := ObjectPathFromURL(s.bucket, objectPath)
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, make(url.Values))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *Storage) PublicURL(objectPath string) string {
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, strings.TrimPrefix(objectPath, "/"))
}

// Remove supprime les objets ; la première erreur est retournée
func (s *Storage) Remove(ctx context.Context, objectPaths ...string) error {
	for _, p := range objectPaths {
		key := ObjectPathFromURL(s.bucket, p)
		if key == "" {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("suppression %s: %w", key, err)
		}
	}
	return nil
}

// ObjectPathFromURL ramène une URL publique ou signée du bucket à son chemin
// d'objet. Une valeur qui n'est pas une URL est retournée telle quelle.
func ObjectPathFromURL(bucket, raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		return strings.TrimPrefix(raw, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	p := strings.TrimPrefix(u.Path, "/")
	if rest, ok := strings.CutPrefix(p, bucket+"/"); ok {
		return rest
	}
	return p
}
