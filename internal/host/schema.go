package host

import (
	"encoding/json"
	"fmt"

	"github.com/christopherklint97/timegrid/internal/week"
	"github.com/invopop/jsonschema"
)

// Contract is the data exchanged with an embedding host: the collections it
// supplies and the intents it receives back.
type Contract struct {
	Snapshot week.Snapshot `json:"snapshot"`
	Intent   week.Intent   `json:"intent"`
}

// Schema returns the JSON Schema of Contract.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{}
	s := r.Reflect(&Contract{})
	s.Title = "timegrid host contract"
	s.Description = "Collections supplied to the week grid and intents emitted by it."

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	return data, nil
}
