package docstore

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"
)

// OpenSearchConfig holds connection settings for the OpenSearch backend.
type OpenSearchConfig struct {
	URL         string
	Username    string
	Password    string
	Insecure    bool
	IndexPrefix string
}

// OpenSearchStore implements Store on an OpenSearch cluster. Each collection
// maps to one index named "<prefix>-<collection>". Writes use refresh so that
// the counter recompute observes its own mutations.
type OpenSearchStore struct {
	client *opensearch.Client
	prefix string
}

// NewOpenSearchStore connects to the cluster, verifies it responds, and
// provisions one index per collection.
func NewOpenSearchStore(ctx context.Context, cfg OpenSearchConfig) (*OpenSearchStore, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.Insecure,
			},
		},
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: httpClient.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	info, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to ping opensearch: %w", err)
	}
	defer info.Body.Close()
	if info.IsError() {
		return nil, fmt.Errorf("opensearch returned error: %s", info.Status())
	}

	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = "opencase"
	}

	s := &OpenSearchStore{client: client, prefix: prefix}
	if err := s.ensureIndices(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *OpenSearchStore) indexName(collection string) string {
	return s.prefix + "-" + collection
}

// ensureIndices creates the per-collection indices with mappings that keep
// filter fields as keywords while title/description stay analyzed text.
func (s *OpenSearchStore) ensureIndices(ctx context.Context) error {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"dynamic_templates": []map[string]interface{}{
				{
					"strings_as_keywords": map[string]interface{}{
						"match_mapping_type": "string",
						"mapping":            map[string]interface{}{"type": "keyword"},
					},
				},
			},
			"properties": map[string]interface{}{
				"title":       map[string]interface{}{"type": "text"},
				"description": map[string]interface{}{"type": "text"},
				"content":     map[string]interface{}{"type": "text"},
				"created_at":  map[string]interface{}{"type": "date"},
				"updated_at":  map[string]interface{}{"type": "date"},
				"uploaded_at": map[string]interface{}{"type": "date"},
			},
		},
	}

	for _, collection := range Collections() {
		index := s.indexName(collection)

		exists, err := s.client.Indices.Exists([]string{index},
			s.client.Indices.Exists.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", index, err)
		}
		exists.Body.Close()
		if exists.StatusCode == http.StatusOK {
			continue
		}

		body, err := json.Marshal(mapping)
		if err != nil {
			return err
		}
		res, err := s.client.Indices.Create(index,
			s.client.Indices.Create.WithContext(ctx),
			s.client.Indices.Create.WithBody(bytes.NewReader(body)))
		if err != nil {
			return fmt.Errorf("failed to create index %s: %w", index, err)
		}
		defer res.Body.Close()
		// A concurrent creator is fine; anything else is not.
		if res.IsError() && res.StatusCode != http.StatusBadRequest {
			return fmt.Errorf("failed to create index %s: %s", index, res.Status())
		}
	}
	return nil
}

func (s *OpenSearchStore) Index(ctx context.Context, collection, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := s.client.Index(s.indexName(collection), bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(id),
		s.client.Index.WithRefresh("true"))
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return opensearchError("index", res.Status(), res.Body)
	}
	return nil
}

func (s *OpenSearchStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	res, err := s.client.Get(s.indexName(collection), id,
		s.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, opensearchError("get", res.Status(), res.Body)
	}

	var result struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode get response: %w", err)
	}
	if !result.Found {
		return nil, ErrNotFound
	}
	return result.Source, nil
}

func (s *OpenSearchStore) Search(ctx context.Context, collection string, q Query, srt Sort, from, size int) ([]json.RawMessage, int, error) {
	searchBody := map[string]interface{}{
		"query": buildOpenSearchQuery(q),
		"from":  from,
		"size":  size,
	}
	if srt.Field != "" {
		order := "asc"
		if srt.Desc {
			order = "desc"
		}
		searchBody["sort"] = []map[string]interface{}{
			{srt.Field: map[string]string{"order": order}},
		}
	}

	body, err := json.Marshal(searchBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal search body: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.indexName(collection)),
		s.client.Search.WithBody(bytes.NewReader(body)),
		s.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search documents: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, opensearchError("search", res.Status(), res.Body)
	}

	var result struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("failed to decode search response: %w", err)
	}

	docs := make([]json.RawMessage, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, result.Hits.Total.Value, nil
}

func (s *OpenSearchStore) Update(ctx context.Context, collection, id string, partial map[string]interface{}) error {
	body, err := json.Marshal(map[string]interface{}{"doc": partial})
	if err != nil {
		return fmt.Errorf("failed to marshal partial document: %w", err)
	}

	res, err := s.client.Update(s.indexName(collection), id, bytes.NewReader(body),
		s.client.Update.WithContext(ctx),
		s.client.Update.WithRefresh("true"))
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.IsError() {
		return opensearchError("update", res.Status(), res.Body)
	}
	return nil
}

func (s *OpenSearchStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.client.Delete(s.indexName(collection), id,
		s.client.Delete.WithContext(ctx),
		s.client.Delete.WithRefresh("true"))
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.IsError() {
		return opensearchError("delete", res.Status(), res.Body)
	}
	return nil
}

func (s *OpenSearchStore) Count(ctx context.Context, collection string, q Query) (int, error) {
	body, err := json.Marshal(map[string]interface{}{"query": buildOpenSearchQuery(q)})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal count body: %w", err)
	}

	res, err := s.client.Count(
		s.client.Count.WithContext(ctx),
		s.client.Count.WithIndex(s.indexName(collection)),
		s.client.Count.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, opensearchError("count", res.Status(), res.Body)
	}

	var result struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}
	return result.Count, nil
}

func (s *OpenSearchStore) DeleteByQuery(ctx context.Context, collection string, q Query) (int, error) {
	body, err := json.Marshal(map[string]interface{}{"query": buildOpenSearchQuery(q)})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal delete query: %w", err)
	}

	res, err := s.client.DeleteByQuery([]string{s.indexName(collection)}, bytes.NewReader(body),
		s.client.DeleteByQuery.WithContext(ctx),
		s.client.DeleteByQuery.WithRefresh(true))
	if err != nil {
		return 0, fmt.Errorf("failed to delete by query: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, opensearchError("delete_by_query", res.Status(), res.Body)
	}

	var result struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode delete response: %w", err)
	}
	return result.Deleted, nil
}

// Close is a no-op: the OpenSearch client has no explicit close.
func (s *OpenSearchStore) Close() error { return nil }

// buildOpenSearchQuery translates the store-agnostic Query into the OpenSearch
// DSL: term filters ANDed in a bool.must, free text as a should-group over
// title/description matches and an exact tags term.
func buildOpenSearchQuery(q Query) map[string]interface{} {
	must := make([]map[string]interface{}, 0, len(q.Terms)+1)
	for field, value := range q.Terms {
		must = append(must, map[string]interface{}{
			"term": map[string]string{field: value},
		})
	}

	if q.Search != "" {
		must = append(must, map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []map[string]interface{}{
					{"match": map[string]string{"title": q.Search}},
					{"match": map[string]string{"description": q.Search}},
					{"term": map[string]string{"tags": q.Search}},
				},
				"minimum_should_match": 1,
			},
		})
	}

	if len(must) == 0 {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{"must": must},
	}
}

func opensearchError(op, status string, body io.Reader) error {
	msg, _ := io.ReadAll(io.LimitReader(body, 1024))
	detail := strings.TrimSpace(string(msg))
	if detail == "" {
		return fmt.Errorf("opensearch %s error: %s", op, status)
	}
	return fmt.Errorf("opensearch %s error: %s - %s", op, status, detail)
}
