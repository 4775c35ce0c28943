// internal/store/indexed.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "loan-journey/internal/common/errors"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// IndexMapping is the Elasticsearch mapping for indexed applications.
const IndexMapping = `{
  "mappings": {
    "properties": {
      "id":              {"type": "keyword"},
      "status":          {"type": "keyword"},
      "rejectionReason": {"type": "text"},
      "createdAt":       {"type": "date"},
      "updatedAt":       {"type": "date"},
      "data": {
        "properties": {
          "name":           {"type": "text", "fields": {"raw": {"type": "keyword"}}},
          "city":           {"type": "text", "fields": {"raw": {"type": "keyword"}}},
          "phone":          {"type": "keyword"},
          "employmentType": {"type": "keyword"},
          "stage":          {"type": "keyword"},
          "loanPurpose":    {"type": "text"},
          "monthlyIncome":  {"type": "double"},
          "loanAmount":     {"type": "double"},
          "creditScore":    {"type": "integer"}
        }
      }
    }
  }
}`

// IndexedStore mirrors every persisted application into Elasticsearch so
// the admin view can search it. The wrapped store stays authoritative: an
// indexing failure is logged and the persist still succeeds.
type IndexedStore struct {
	Store
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexedStore(inner Store, es *elasticsearch.Client, index string, log logger.Logger) *IndexedStore {
	return &IndexedStore{
		Store:  inner,
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"store": "indexed", "index": index}),
	}
}

func (s *IndexedStore) Persist(ctx context.Context, rec models.ApplicationRecord, status models.ApplicationStatus,
	sanction *models.SanctionRecord, rejectionReason string) (string, error) {
	id, err := s.Store.Persist(ctx, rec, status, sanction, rejectionReason)
	if err != nil {
		return "", err
	}

	app, err := s.Store.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("indexing skipped, stored application not readable", map[string]interface{}{
			"applicationId": id,
			"error":         err,
		})
		return id, nil
	}
	if err := s.indexApplication(ctx, app); err != nil {
		s.logger.Warn("application indexing failed", map[string]interface{}{
			"applicationId": id,
			"error":         err,
		})
	}
	return id, nil
}

func (s *IndexedStore) indexApplication(ctx context.Context, app *models.StoredApplication) error {
	body, err := json.Marshal(app)
	if err != nil {
		return err
	}

	res, err := s.es.Index(s.index, bytes.NewReader(body),
		s.es.Index.WithContext(ctx),
		s.es.Index.WithDocumentID(app.ID),
		s.es.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index request failed: %s", res.String())
	}
	return nil
}

// SearchQuery filters the admin search. Empty fields match everything.
type SearchQuery struct {
	Text   string
	Status models.ApplicationStatus
	Size   int
}

// Search runs a full-text query over applicant name, city, purpose and
// rejection reason, newest first.
func (s *IndexedStore) Search(ctx context.Context, q SearchQuery) ([]models.StoredApplication, error) {
	size := q.Size
	if size < 1 || size > 100 {
		size = 20
	}

	must := []map[string]interface{}{}
	if text := strings.TrimSpace(q.Text); text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"data.name", "data.city", "data.loanPurpose", "rejectionReason", "id"},
			},
		})
	}
	filter := []map[string]interface{}{}
	if q.Status != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"status": string(q.Status)},
		})
	}

	query := map[string]interface{}{
		"size": size,
		"sort": []map[string]interface{}{{"createdAt": map[string]string{"order": "desc"}}},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must, "filter": filter},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("%w: build query: %v", apperrors.ErrStoreReadFailed, err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", apperrors.ErrStoreReadFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search failed: %s", apperrors.ErrStoreReadFailed, res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source models.StoredApplication `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", apperrors.ErrStoreReadFailed, err)
	}

	apps := make([]models.StoredApplication, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		apps = append(apps, hit.Source)
	}
	return apps, nil
}
