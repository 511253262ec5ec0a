package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avelier/bookreviews/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
)

// DefaultIndex is the Elasticsearch index holding review documents.
const DefaultIndex = "reviews"

func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Review, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^2", "review"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Review `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	reviews := make([]models.Review, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		reviews[i] = hit.Source
	}
	return r.Hits.Total.Value, reviews, nil
}

// IndexReview upserts a review document. A nil client means search is
// disabled, the call is a no-op then.
func IndexReview(ctx context.Context, es *elasticsearch.Client, index string, review *models.Review) error {
	if es == nil {
		return nil
	}

	data, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("index review: %w", err)
	}

	res, err := es.Index(
		index,
		bytes.NewReader(data),
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(fmt.Sprint(review.ID)),
	)
	if err != nil {
		return fmt.Errorf("index review: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index review: %s", res.Status())
	}
	return nil
}

func DeleteReview(ctx context.Context, es *elasticsearch.Client, index string, id uint) error {
	if es == nil {
		return nil
	}

	res, err := es.Delete(index, fmt.Sprint(id), es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete review doc: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete review doc: %s", res.Status())
	}
	return nil
}

// DeleteByUser removes every document owned by the given user, used by the
// cascading user delete.
func DeleteByUser(ctx context.Context, es *elasticsearch.Client, index string, userID uint) error {
	if es == nil {
		return nil
	}

	body := fmt.Sprintf(`{"query":{"term":{"user_id":%d}}}`, userID)
	res, err := es.DeleteByQuery([]string{index}, strings.NewReader(body), es.DeleteByQuery.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete by user: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("delete by user: %s", res.Status())
	}
	return nil
}
