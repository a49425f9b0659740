package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tasko/internal/domain/entity"
)

const (
	DefaultSearchSize = 10
	MaxSearchSize     = 50
)

// TaskIndexMapping is applied when the tasks index is created at boot.
const TaskIndexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "category":    {"type": "keyword"},
      "status":      {"type": "keyword"},
      "price":       {"type": "double"},
      "deadline":    {"type": "date"},
      "is_remote":   {"type": "boolean"},
      "address":     {"type": "text"},
      "location":    {"type": "geo_point"},
      "created_at":  {"type": "date"}
    }
  }
}`

// TaskIndex mirrors tasks into Elasticsearch for full-text search.
// A nil TaskIndex, or one without a client, is a no-op.
type TaskIndex struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewTaskIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *TaskIndex {
	return &TaskIndex{ES: es, Index: index, Logger: logger}
}

func (x *TaskIndex) enabled() bool {
	return x != nil && x.ES != nil && x.Index != ""
}

func taskDocument(t *entity.Task) map[string]any {
	doc := map[string]any{
		"id":          t.ID,
		"title":       t.Title,
		"description": t.Description,
		"category":    string(t.Category),
		"status":      string(t.Status),
		"price":       t.Price,
		"deadline":    t.Deadline.UTC().Format(time.RFC3339Nano),
		"is_remote":   t.Location.IsRemote,
		"address":     t.Location.Point.Address,
		"created_at":  t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if !t.Location.IsRemote {
		doc["location"] = map[string]float64{"lat": t.Location.Point.Latitude, "lon": t.Location.Point.Longitude}
	}
	return doc
}

// Put indexes the current state of t. Errors are logged only.
func (x *TaskIndex) Put(ctx context.Context, t *entity.Task) {
	if !x.enabled() || t == nil {
		return
	}
	b, _ := json.Marshal(taskDocument(t))
	req := esapi.IndexRequest{Index: x.Index, DocumentID: t.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		if x.Logger != nil {
			x.Logger.WithError(err).WithField("task_id", t.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && x.Logger != nil {
		x.Logger.WithField("status", res.Status()).WithField("task_id", t.ID).Warn("es index response error")
	}
}

// Search runs a multi_match over open tasks. size is clamped to [1, MaxSearchSize].
func (x *TaskIndex) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if !x.enabled() {
		return []map[string]any{}, nil
	}
	if size <= 0 {
		size = DefaultSearchSize
	}
	if size > MaxSearchSize {
		size = MaxSearchSize
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"title^2", "description", "category"},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"status": string(entity.StatusOpen)},
				},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := x.ES.Search(x.ES.Search.WithContext(c), x.ES.Search.WithIndex(x.Index), x.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", x.Index, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
