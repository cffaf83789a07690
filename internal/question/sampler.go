package question

import (
	"math/rand"
)

// Sampler draws category-balanced random subsets from a bank. The RNG is
// injected so tests can seed it deterministically.
type Sampler struct {
	bank *Bank
	rng  *rand.Rand
}

func NewSampler(bank *Bank, rng *rand.Rand) *Sampler {
	return &Sampler{bank: bank, rng: rng}
}

// Sample picks up to count questions spread evenly across categories.
//
// Each category contributes floor(count/categories) questions, with the
// remainder distributed one apiece to a randomly chosen prefix of the
// shuffled category order. A category with fewer questions than its share
// contributes everything it has, so the result may be shorter than count.
// The combined set is shuffled once more so questions from the same
// category do not cluster.
func (s *Sampler) Sample(count int) []Question {
	if count <= 0 {
		return []Question{}
	}

	categories := s.bank.Categories()
	if len(categories) == 0 {
		return []Question{}
	}

	perCategory := count / len(categories)
	remainder := count % len(categories)

	s.rng.Shuffle(len(categories), func(i, j int) {
		categories[i], categories[j] = categories[j], categories[i]
	})

	selected := make([]Question, 0, count)
	for i, category := range categories {
		pool := s.bank.ByCategory(category)
		s.rng.Shuffle(len(pool), func(a, b int) {
			pool[a], pool[b] = pool[b], pool[a]
		})

		take := perCategory
		if i < remainder {
			take++
		}
		if take > len(pool) {
			take = len(pool)
		}
		selected = append(selected, pool[:take]...)
	}

	s.rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	if len(selected) > count {
		selected = selected[:count]
	}
	return selected
}

// SampleFromModule draws up to count random questions from one module. A
// count of zero or less returns the whole module shuffled.
func (s *Sampler) SampleFromModule(moduleID string, count int) []Question {
	pool := s.bank.ByModule(moduleID)
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if count > 0 && count < len(pool) {
		pool = pool[:count]
	}
	return pool
}

// SampleFromRole draws up to count random questions matching a role track.
func (s *Sampler) SampleFromRole(role string, count int) []Question {
	pool := s.bank.ByRole(role)
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if count > 0 && count < len(pool) {
		pool = pool[:count]
	}
	return pool
}
