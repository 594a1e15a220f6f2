package classifier

import (
	"encoding/json"
	"fmt"
)

// NumericStat holds standardization statistics for one numeric column,
// captured at training time and replayed at scoring time.
type NumericStat struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"` // 1 when the column is constant in training
}

// Model is the immutable artifact produced by training. It is opaque to the
// pipeline apart from the schema hash used for compatibility checks, and
// serializes to JSON for the model store.
type Model struct {
	SchemaColumns []string `json:"schema_columns"`
	SchemaHash    string   `json:"schema_hash"`

	// Encoding captured at training time: per-numeric-column statistics and
	// per-categorical-column vocabularies (sorted). Categories unseen in
	// training encode to all zeros at scoring time.
	NumericStats []NumericStat       `json:"numeric_stats"`
	Vocabularies map[string][]string `json:"vocabularies"`

	// Learned parameters: one weight per encoded dimension, plus bias.
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Marshal serializes the model for artifact storage.
func (m *Model) Marshal() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal model: %w", err)
	}
	return data, nil
}

// UnmarshalModel restores a model from its serialized artifact payload.
func UnmarshalModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	return &m, nil
}

// checkSchema verifies a scoring request's schema against the training schema.
func (m *Model) checkSchema(schema Schema) error {
	if schema.Hash() != m.SchemaHash {
		return fmt.Errorf("%w: model trained on %v, scoring requested %v",
			ErrSchemaMismatch, m.SchemaColumns, schema.Columns)
	}
	return nil
}
