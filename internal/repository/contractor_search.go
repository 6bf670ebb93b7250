// internal/repository/contractor_search.go
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	apperrors "matching-workers/internal/common/errors"
	"matching-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// maxSearchCandidates caps the ids one search returns. Hits beyond the cap are
// not considered, so TotalCandidates never exceeds it in elasticsearch mode.
const maxSearchCandidates = 500

// ContractorSearch answers criteria queries from an Elasticsearch index and
// hydrates the hits from Postgres, which stays the source of truth for
// profiles and active job counts. Every other lookup goes straight to Postgres.
type ContractorSearch struct {
	*ContractorDirectory
	es    *elasticsearch.Client
	index string
	size  int
}

func NewContractorSearch(es *elasticsearch.Client, index string, directory *ContractorDirectory) *ContractorSearch {
	return &ContractorSearch{
		ContractorDirectory: directory,
		es:                  es,
		index:               index,
		size:                maxSearchCandidates,
	}
}

// contractorDocument is the indexed shape of a contractor profile.
type contractorDocument struct {
	BusinessName string   `json:"business_name"`
	Services     []string `json:"services"`
	ServiceAreas []string `json:"service_areas"`
	IsActive     bool     `json:"is_active"`
	IsApproved   bool     `json:"is_approved"`
	IsAvailable  bool     `json:"is_available"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildCriteriaQuery(criteria models.MatchCriteria, size int) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"is_active": true}},
		map[string]interface{}{"term": map[string]interface{}{"is_approved": true}},
		map[string]interface{}{"term": map[string]interface{}{"is_available": true}},
		map[string]interface{}{"term": map[string]interface{}{"services": string(criteria.ServiceType)}},
		map[string]interface{}{"term": map[string]interface{}{"service_areas": string(criteria.Province)}},
	}

	boolQuery := map[string]interface{}{"filter": filters}
	if len(criteria.ExcludeContractorIDs) > 0 {
		boolQuery["must_not"] = []interface{}{
			map[string]interface{}{"ids": map[string]interface{}{"values": criteria.ExcludeContractorIDs}},
		}
	}

	return map[string]interface{}{
		"_source": false,
		"size":    size,
		"query":   map[string]interface{}{"bool": boolQuery},
	}
}

func (s *ContractorSearch) FindContractorsByCriteria(ctx context.Context, criteria models.MatchCriteria) ([]models.Contractor, error) {
	body, err := json.Marshal(buildCriteriaQuery(criteria, s.size))
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(s.index, err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("search returned %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(s.index, err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	// The index can lag behind Postgres, so the returned profiles are
	// re-checked against the same criteria before use.
	contractors, err := s.ContractorDirectory.FindContractors(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := contractors[:0]
	for _, c := range contractors {
		if c.IsActive && c.IsApproved && c.IsAvailable && c.Offers(criteria.ServiceType) && c.Serves(criteria.Province) {
			out = append(out, c)
		}
	}
	return out, nil
}

// IndexContractor writes or replaces the search document for c.
func (s *ContractorSearch) IndexContractor(ctx context.Context, c models.Contractor) error {
	doc := contractorDocument{
		BusinessName: c.BusinessName,
		IsActive:     c.IsActive,
		IsApproved:   c.IsApproved,
		IsAvailable:  c.IsAvailable,
	}
	for _, svc := range c.Services {
		doc.Services = append(doc.Services, string(svc))
	}
	for _, p := range c.ServiceAreas {
		doc.ServiceAreas = append(doc.ServiceAreas, string(p))
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return apperrors.NewSearchQueryFailedError(s.index, err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: c.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return apperrors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("index returned %s", res.Status()))
	}
	return nil
}

// ReindexAll pushes every contractor profile from Postgres into the index.
func (s *ContractorSearch) ReindexAll(ctx context.Context) (int, error) {
	contractors, err := s.ContractorDirectory.query(ctx, "list contractors", `
		SELECT `+contractorColumns+`
		FROM contractors c
		ORDER BY c.id`)
	if err != nil {
		return 0, err
	}
	for _, c := range contractors {
		if err := s.IndexContractor(ctx, c); err != nil {
			return 0, err
		}
	}
	return len(contractors), nil
}
