package backendapi

import (
	"encoding/json"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// Evaluator abstracts JMESPath operations for testability.
type Evaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

type jmespathEvaluator struct{}

func (jmespathEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (jmespathEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// decodeJSON returns nil for bodies that are not JSON.
func decodeJSON(body []byte) any {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil
	}
	return doc
}

// stringAt evaluates expr against doc and returns the result if it is a
// non-empty string.
func (c *Client) stringAt(doc any, expr string) string {
	if doc == nil || expr == "" {
		return ""
	}
	v, err := c.eval.Evaluate(expr, doc)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// detail pulls the human-readable error out of an error body. FastAPI sends
// either {"detail": "..."} or {"detail": [{"msg": "..."}, ...]}.
func (c *Client) detail(body []byte) string {
	doc := decodeJSON(body)
	if msg := c.stringAt(doc, c.cfg.DetailPath); msg != "" {
		return msg
	}
	return c.stringAt(doc, c.cfg.DetailPath+"[0].msg")
}
