package assessment

import (
	"math"

	"elderline/internal/question"
)

// Qualification thresholds used by the two assessment flows. The standard
// modules qualify at 60%, the endorsement (PKT) flow at 80%. Both are passed
// into Score as a parameter so a new entry point never needs a code change
// here.
const (
	QualifyThresholdStandard    = 60
	QualifyThresholdEndorsement = 80
)

type Result struct {
	Score          int            `json:"score"`
	Total          int            `json:"total"`
	Percentage     int            `json:"percentage"`
	Qualified      bool           `json:"qualified"`
	Answers        map[int]string `json:"answers"`
	CorrectAnswers map[int]string `json:"correct_answers"`
}

// Score grades a finished answer sheet against the question set. Unanswered
// and wrong answers both earn zero; there is no negative marking. An empty
// question set yields an all-zero, not-qualified result.
func Score(answers map[int]string, questions []question.Question, threshold int) Result {
	res := Result{
		Answers:        make(map[int]string, len(answers)),
		CorrectAnswers: make(map[int]string, len(questions)),
	}
	for id, opt := range answers {
		res.Answers[id] = opt
	}

	for _, q := range questions {
		res.CorrectAnswers[q.ID] = q.CorrectOption
		if answers[q.ID] == q.CorrectOption {
			res.Score++
		}
	}

	res.Total = len(questions)
	if res.Total == 0 {
		return res
	}

	res.Percentage = int(math.Round(float64(res.Score) / float64(res.Total) * 100))
	res.Qualified = res.Percentage >= threshold
	return res
}
