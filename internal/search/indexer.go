// internal/search/indexer.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

// Indexer maintains the delivery audit index: every dispatched
// notification is indexed together with its per-channel outcomes, and
// can be searched back by title/message text.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	if index == "" {
		index = "notifications"
	}
	return &Indexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "search_indexer"}),
	}
}

type auditDocument struct {
	Notification    *models.Notification    `json:"notification"`
	DeliveryResults []models.DeliveryResult `json:"delivery_results,omitempty"`
}

// IndexDelivery records one dispatched notification. Indexing is an
// audit concern; failures are logged and swallowed so they never fail
// the enclosing request.
func (i *Indexer) IndexDelivery(ctx context.Context, n *models.Notification, results []models.DeliveryResult) {
	if i.client == nil {
		return
	}

	doc, err := json.Marshal(auditDocument{Notification: n, DeliveryResults: results})
	if err != nil {
		i.logger.Warn("audit encode failed", map[string]interface{}{"error": err.Error()})
		return
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: n.ID,
		Body:       bytes.NewReader(doc),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		i.logger.Warn("audit index failed", map[string]interface{}{
			"notificationId": n.ID,
			"error":          err.Error(),
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		i.logger.Warn("audit index rejected", map[string]interface{}{
			"notificationId": n.ID,
			"status":         res.Status(),
		})
	}
}

// Search returns a user's indexed notifications matching the query text.
func (i *Indexer) Search(ctx context.Context, userID, query string, size int) ([]*models.Notification, error) {
	if i.client == nil {
		return nil, apperrors.New(apperrors.ErrCodeSearchQueryFailed, "search index not configured")
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	body := map[string]interface{}{
		"size": size,
		"sort": []map[string]interface{}{
			{"notification.created_at": map[string]string{"order": "desc"}},
		},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"notification.user_id": userID}},
				},
				"must": []map[string]interface{}{
					{"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"notification.title", "notification.message"},
					}},
				},
			},
		},
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeSearchQueryFailed, "encode query", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(encoded)),
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeSearchQueryFailed, "execute search", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.New(apperrors.ErrCodeSearchQueryFailed, fmt.Sprintf("search failed: %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source auditDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeSearchQueryFailed, "decode response", err)
	}

	notifications := make([]*models.Notification, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		if hit.Source.Notification != nil {
			notifications = append(notifications, hit.Source.Notification)
		}
	}
	return notifications, nil
}
