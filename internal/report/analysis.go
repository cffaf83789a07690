// Package report aggregates completed attempts into the admin analytics
// views and produces the CSV/XLSX exports.
package report

import (
	"fmt"
	"math"
	"sort"

	"elderline/internal/assessment"
	"elderline/internal/question"
)

type QuestionAnalysis struct {
	ID              int            `json:"id"`
	Question        string         `json:"question"`
	Correct         int            `json:"correct"`
	Wrong           int            `json:"wrong"`
	Total           int            `json:"total"`
	Options         map[string]int `json:"options"`
	Compliance      int            `json:"compliance"`
	WrongPercentage int            `json:"wrong_percentage"`
}

type ModuleAnalysis struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Compliance int    `json:"compliance"`
	Total      int    `json:"total"`
}

type CategoryAnalysis struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Count int    `json:"count"`
}

const (
	SuggestionUrgent  = "urgent"
	SuggestionWarning = "warning"
	SuggestionGood    = "good"
)

type Suggestion struct {
	Text   string `json:"text"`
	Topic  string `json:"topic"`
	Status string `json:"status"`
}

type Stats struct {
	TotalAttempts int `json:"total_attempts"`
	Qualified     int `json:"qualified"`
	NotQualified  int `json:"not_qualified"`
	AverageScore  int `json:"average_score"`
}

// AnalyzeQuestions folds every recorded answer into a per-question tally.
// Answers that reference a question no longer in the catalogue are skipped.
// Results are sorted by question id ascending.
func AnalyzeQuestions(attempts []assessment.Attempt, bank *question.Bank) []QuestionAnalysis {
	tallies := make(map[int]*QuestionAnalysis)

	for _, attempt := range attempts {
		for qid, selected := range attempt.Answers {
			q, ok := bank.ByID(qid)
			if !ok {
				continue
			}
			t := tallies[qid]
			if t == nil {
				t = &QuestionAnalysis{
					ID:       qid,
					Question: q.QuestionText,
					Options:  map[string]int{"A": 0, "B": 0, "C": 0, "D": 0},
				}
				tallies[qid] = t
			}
			t.Total++
			t.Options[selected]++
			if selected == q.CorrectOption {
				t.Correct++
			} else {
				t.Wrong++
			}
		}
	}

	out := make([]QuestionAnalysis, 0, len(tallies))
	for _, t := range tallies {
		t.Compliance = pct(t.Correct, t.Total)
		t.WrongPercentage = -pct(t.Wrong, t.Total)
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AnalyzeModules tallies answers per training module. Results are sorted
// ascending by compliance so the weakest module comes first.
func AnalyzeModules(attempts []assessment.Attempt, bank *question.Bank) []ModuleAnalysis {
	type tally struct {
		name    string
		correct int
		total   int
	}
	tallies := make(map[string]*tally)
	var order []string

	for _, attempt := range attempts {
		for qid, selected := range attempt.Answers {
			q, ok := bank.ByID(qid)
			if !ok {
				continue
			}
			t := tallies[q.Module]
			if t == nil {
				name := q.Module
				if mod, found := bank.ModuleByID(q.Module); found {
					name = mod.Name
				}
				t = &tally{name: name}
				tallies[q.Module] = t
				order = append(order, q.Module)
			}
			t.total++
			if selected == q.CorrectOption {
				t.correct++
			}
		}
	}

	sort.Strings(order)
	out := make([]ModuleAnalysis, 0, len(order))
	for _, id := range order {
		t := tallies[id]
		out = append(out, ModuleAnalysis{
			ID:         id,
			Name:       t.name,
			Compliance: pct(t.correct, t.total),
			Total:      t.total,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Compliance < out[j].Compliance })
	return out
}

// AnalyzeCategories tallies answers per question category. Results are
// sorted descending by compliance.
func AnalyzeCategories(attempts []assessment.Attempt, bank *question.Bank) []CategoryAnalysis {
	type tally struct {
		correct int
		total   int
	}
	tallies := make(map[string]*tally)
	var order []string

	for _, attempt := range attempts {
		for qid, selected := range attempt.Answers {
			q, ok := bank.ByID(qid)
			if !ok {
				continue
			}
			t := tallies[q.Category]
			if t == nil {
				t = &tally{}
				tallies[q.Category] = t
				order = append(order, q.Category)
			}
			t.total++
			if selected == q.CorrectOption {
				t.correct++
			}
		}
	}

	sort.Strings(order)
	out := make([]CategoryAnalysis, 0, len(order))
	for _, name := range order {
		t := tallies[name]
		out = append(out, CategoryAnalysis{
			Name:  name,
			Value: pct(t.correct, t.total),
			Count: t.total,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// Suggest turns the module analysis into training recommendations. Modules
// under 50% compliance are urgent, under 70% need improvement; if every
// module is at or above 70% a single all-clear entry is returned.
func Suggest(modules []ModuleAnalysis) []Suggestion {
	var low []ModuleAnalysis
	for _, m := range modules {
		if m.Compliance < 70 {
			low = append(low, m)
		}
	}

	if len(low) == 0 && len(modules) > 0 {
		return []Suggestion{{
			Text:   "All modules are performing well. Maintain current training standards.",
			Topic:  "General Performance",
			Status: SuggestionGood,
		}}
	}

	out := make([]Suggestion, 0, len(low))
	for _, m := range low {
		if m.Compliance < 50 {
			out = append(out, Suggestion{
				Text:   fmt.Sprintf("Urgent: Focus on %q. Average compliance is only %d%%. Intensive retraining recommended.", m.Name, m.Compliance),
				Topic:  m.Name,
				Status: SuggestionUrgent,
			})
			continue
		}
		out = append(out, Suggestion{
			Text:   fmt.Sprintf("Improvement needed: %q has %d%% compliance. Consider additional refresher sessions.", m.Name, m.Compliance),
			Topic:  m.Name,
			Status: SuggestionWarning,
		})
	}
	return out
}

// ComputeStats summarises the attempt list for the admin dashboard header.
func ComputeStats(attempts []assessment.Attempt) Stats {
	st := Stats{TotalAttempts: len(attempts)}
	sum := 0
	for _, a := range attempts {
		if a.Qualified {
			st.Qualified++
		} else {
			st.NotQualified++
		}
		sum += a.Percentage
	}
	if len(attempts) > 0 {
		st.AverageScore = int(math.Round(float64(sum) / float64(len(attempts))))
	}
	return st
}

func pct(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
