// Package question holds the static Elder Line question catalogue and the
// category-balanced sampler used to build test papers.
package question

import (
	"sort"
	"strings"
)

// Role identifies which officer track a question or module belongs to.
const (
	RoleCO   = "CO"
	RoleFRO  = "FRO"
	RoleBoth = "BOTH"
)

type Question struct {
	ID            int    `json:"id"`
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
	Category      string `json:"category"`
	Module        string `json:"module"`
	Role          string `json:"role"`
}

type Module struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Role          string `json:"role"`
	QuestionCount int    `json:"question_count"`
}

// Bank is the immutable in-memory catalogue. It is loaded once at startup
// and shared by every request; all accessors return copies of the backing
// slice so callers can shuffle or trim freely.
type Bank struct {
	modules   []Module
	questions []Question
	byID      map[int]Question
}

func NewBank(modules []Module, questions []Question) *Bank {
	byID := make(map[int]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return &Bank{
		modules:   append([]Module(nil), modules...),
		questions: append([]Question(nil), questions...),
		byID:      byID,
	}
}

func (b *Bank) Modules() []Module {
	return append([]Module(nil), b.modules...)
}

func (b *Bank) ModuleByID(id string) (Module, bool) {
	for _, m := range b.modules {
		if m.ID == id {
			return m, true
		}
	}
	return Module{}, false
}

func (b *Bank) All() []Question {
	return append([]Question(nil), b.questions...)
}

func (b *Bank) Len() int {
	return len(b.questions)
}

// Categories returns the distinct category names in first-seen order.
func (b *Bank) Categories() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, q := range b.questions {
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}
	return out
}

func (b *Bank) ByCategory(category string) []Question {
	out := make([]Question, 0)
	for _, q := range b.questions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out
}

func (b *Bank) ByModule(moduleID string) []Question {
	out := make([]Question, 0)
	for _, q := range b.questions {
		if q.Module == moduleID {
			out = append(out, q)
		}
	}
	return out
}

// ByRole matches the requested role plus questions tagged for both tracks.
func (b *Bank) ByRole(role string) []Question {
	role = strings.ToUpper(strings.TrimSpace(role))
	out := make([]Question, 0)
	for _, q := range b.questions {
		if q.Role == role || q.Role == RoleBoth {
			out = append(out, q)
		}
	}
	return out
}

func (b *Bank) ByID(id int) (Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// CategoryDistribution counts how many questions of the given set fall in
// each category.
func CategoryDistribution(qs []Question) map[string]int {
	dist := make(map[string]int, len(qs))
	for _, q := range qs {
		dist[q.Category]++
	}
	return dist
}

// SortByID orders a question slice by ascending id, in place.
func SortByID(qs []Question) {
	sort.Slice(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })
}
