package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"go-feed-cache/internal/interfaces"
)

// Ensure HTTPJSON implements interfaces.Producer
var _ interfaces.Producer = (*HTTPJSON)(nil)

// HTTPJSON fetches a JSON document and optionally selects a sub-document
// with a gjson path.
type HTTPJSON struct {
	*fetcher
	path string
}

// Produce returns the selected raw JSON
func (p *HTTPJSON) Produce(ctx context.Context) (any, error) {
	body, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("upstream %s returned invalid JSON", p.url)
	}

	if p.path == "" {
		return json.RawMessage(body), nil
	}

	selected := gjson.GetBytes(body, p.path)
	if !selected.Exists() {
		return nil, fmt.Errorf("path %q not found in response from %s", p.path, p.url)
	}
	return json.RawMessage(selected.Raw), nil
}
