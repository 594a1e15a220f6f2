package classifier

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"purchase-intent-lab/internal/domain"
)

// Schema is an ordered, named feature-column set. Models are versioned by
// the schema hash: any column change produces a different hash and therefore
// a different model.
type Schema struct {
	Columns []string
}

// NewSchema validates and normalizes a column list. Columns keep their given
// order; duplicates and unknown column names are rejected.
func NewSchema(columns []string) (Schema, error) {
	if len(columns) == 0 {
		return Schema{}, fmt.Errorf("empty feature column set")
	}

	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if !domain.KnownColumn(col) {
			return Schema{}, fmt.Errorf("unknown feature column %q", col)
		}
		if _, dup := seen[col]; dup {
			return Schema{}, fmt.Errorf("duplicate feature column %q", col)
		}
		seen[col] = struct{}{}
	}

	return Schema{Columns: append([]string(nil), columns...)}, nil
}

// Hash returns the hex SHA256 of the ordered column list.
func (s Schema) Hash() string {
	h := sha256.Sum256([]byte(strings.Join(s.Columns, "|")))
	return hex.EncodeToString(h[:])
}

// Numeric returns the schema's numeric columns in order.
func (s Schema) Numeric() []string {
	var cols []string
	for _, c := range s.Columns {
		if domain.NumericColumns[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// Categorical returns the schema's categorical columns in order.
func (s Schema) Categorical() []string {
	var cols []string
	for _, c := range s.Columns {
		if !domain.NumericColumns[c] {
			cols = append(cols, c)
		}
	}
	return cols
}
