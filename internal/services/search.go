package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ErrSearchUnavailable = errors.New("elasticsearch non configuré")

// SearchIndex est un index Elasticsearch (products, blogs)
type SearchIndex struct {
	es     *elasticsearch.Client
	index  string
	fields []string
}

// NewSearchIndex accepte un client nil : Search retourne alors ErrSearchUnavailable
func NewSearchIndex(es *elasticsearch.Client, index string, fields ...string) *SearchIndex {
	return &SearchIndex{es: es, index: index, fields: fields}
}

func (s *SearchIndex) Index(ctx context.Context, id string, doc any) {
	if s.es == nil {
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		log.Printf("❌ Sérialisation %s/%s: %v", s.index, id, err)
		return
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: id,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		log.Println("❌ Erreur envoi Elastic:", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("⚠️ Elastic a renvoyé une erreur pour %s/%s: %s", s.index, id, res.String())
	} else {
		log.Printf("✅ Document indexé dans %s: %s", s.index, id)
	}
}

func (s *SearchIndex) Delete(ctx context.Context, id string) {
	if s.es == nil {
		return
	}
	res, err := esapi.DeleteRequest{Index: s.index, DocumentID: id, Refresh: "true"}.Do(ctx, s.es)
	if err != nil {
		log.Println("❌ Erreur suppression Elastic:", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		log.Printf("⚠️ Suppression %s/%s: %s", s.index, id, res.String())
	}
}

// Search lance un multi_match et retourne les _source bruts
func (s *SearchIndex) Search(ctx context.Context, query string) ([]json.RawMessage, error) {
	if s.es == nil {
		return nil, ErrSearchUnavailable
	}

	var buf bytes.Buffer
	q := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": s.fields,
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elastic %s: %s", s.index, res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %w", err)
	}

	results := make([]json.RawMessage, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		results = append(results, hit.Source)
	}
	return results, nil
}

// MatchesQuery est le filtre de repli quand Elasticsearch ne répond pas
func MatchesQuery(query string, values ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}
