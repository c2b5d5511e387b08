package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// HttpIndex implements IndexStore against an Elasticsearch-compatible REST
// endpoint.
type HttpIndex struct {
	client *resty.Client
}

// NewHttpIndex builds an index client for the given base URL, e.g.
// "http://localhost:9200".
func NewHttpIndex(baseURL string) *HttpIndex {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	return &HttpIndex{client: client}
}

func (h *HttpIndex) Upsert(ctx context.Context, index, docID string, doc Record) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(doc).
		Put(fmt.Sprintf("/%s/_doc/%s", index, docID))
	if err != nil {
		return fmt.Errorf("index upsert failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("index upsert failed: %s %s", resp.Status(), resp.String())
	}
	return nil
}

func (h *HttpIndex) BulkInsert(ctx context.Context, index string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	// NDJSON body: one action line and one source line per document.
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, doc := range docs {
		action := map[string]interface{}{
			"index": map[string]interface{}{"_index": index, "_id": doc.ID},
		}
		if err := enc.Encode(action); err != nil {
			return err
		}
		if err := enc.Encode(doc.Source); err != nil {
			return err
		}
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-ndjson").
		SetBody(body.String()).
		Post("/_bulk")
	if err != nil {
		return fmt.Errorf("bulk index failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("bulk index failed: %s %s", resp.Status(), resp.String())
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
	}
	if err := json.Unmarshal(resp.Body(), &bulkResp); err != nil {
		return fmt.Errorf("invalid bulk response: %w", err)
	}
	if bulkResp.Errors {
		return fmt.Errorf("bulk index reported item failures")
	}
	return nil
}

func (h *HttpIndex) Update(ctx context.Context, index, docID string, attrs Record) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"doc": attrs}).
		Post(fmt.Sprintf("/%s/_update/%s", index, docID))
	if err != nil {
		return fmt.Errorf("index update failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrDocumentNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("index update failed: %s %s", resp.Status(), resp.String())
	}
	return nil
}

func (h *HttpIndex) GetByID(ctx context.Context, index, docID string) (Record, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/%s/_doc/%s", index, docID))
	if err != nil {
		return nil, fmt.Errorf("index get failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrDocumentNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("index get failed: %s %s", resp.Status(), resp.String())
	}

	var getResp struct {
		Source Record `json:"_source"`
	}
	if err := json.Unmarshal(resp.Body(), &getResp); err != nil {
		return nil, fmt.Errorf("invalid get response: %w", err)
	}
	return getResp.Source, nil
}

func (h *HttpIndex) Search(ctx context.Context, index, field string, values []string) ([]Record, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"terms": map[string]interface{}{field: values},
		},
	}
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(query).
		Post(fmt.Sprintf("/%s/_search", index))
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("index search failed: %s %s", resp.Status(), resp.String())
	}

	var searchResp struct {
		Hits struct {
			Hits []struct {
				Source Record `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("invalid search response: %w", err)
	}
	out := make([]Record, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		out = append(out, hit.Source)
	}
	return out, nil
}
