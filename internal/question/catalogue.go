package question

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed catalogue.json
var catalogueJSON []byte

type catalogueFile struct {
	Modules   []Module   `json:"modules"`
	Questions []Question `json:"questions"`
}

// LoadBank parses the embedded catalogue and validates every entry. The
// catalogue ships inside the binary; a broken entry is a build artifact
// problem, so callers are expected to treat an error here as fatal.
func LoadBank() (*Bank, error) {
	var f catalogueFile
	if err := json.Unmarshal(catalogueJSON, &f); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("catalogue has no questions")
	}

	seen := make(map[int]struct{}, len(f.Questions))
	for _, q := range f.Questions {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", q.ID, err)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("question %d: duplicate id", q.ID)
		}
		seen[q.ID] = struct{}{}
	}

	return NewBank(f.Modules, f.Questions), nil
}

func validateQuestion(q Question) error {
	if q.ID <= 0 {
		return fmt.Errorf("invalid id")
	}
	if strings.TrimSpace(q.QuestionText) == "" {
		return fmt.Errorf("empty question text")
	}
	switch q.CorrectOption {
	case "A", "B", "C", "D":
	default:
		return fmt.Errorf("correct option %q out of range", q.CorrectOption)
	}
	switch q.Role {
	case RoleCO, RoleFRO, RoleBoth:
	default:
		return fmt.Errorf("unknown role %q", q.Role)
	}
	if strings.TrimSpace(q.Category) == "" {
		return fmt.Errorf("empty category")
	}
	return nil
}
