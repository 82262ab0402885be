package planner

import (
	"math/rand"
	"sort"
)

// Candidate is a recipe eligible for shuffling, detached from persistence so
// the engine stays pure computation.
type Candidate struct {
	RecipeID   int64
	Name       string
	MealTypeID int64
}

// Assignment is a proposed meal for one day. A nil Recipe leaves the day
// unassigned.
type Assignment struct {
	DayOffset int
	Recipe    *Candidate
}

// Shuffle proposes one assignment per day so that no two consecutive days
// share a meal type. For each day it picks uniformly among meal types that
// have at least one candidate, excluding the previous day's type; when that
// excludes everything (a single-type catalog) it falls back to the full set
// and allows the repeat. With no candidates at all, every day comes back
// unassigned — an empty catalog is not an error.
//
// The engine has no side effects; callers persist the assignments.
func Shuffle(byType map[int64][]Candidate, days int, rng *rand.Rand) []Assignment {
	typeIDs := make([]int64, 0, len(byType))
	for id, candidates := range byType {
		if len(candidates) > 0 {
			typeIDs = append(typeIDs, id)
		}
	}
	// Map order is random; sort so the rng alone decides the outcome.
	sort.Slice(typeIDs, func(i, j int) bool { return typeIDs[i] < typeIDs[j] })

	assignments := make([]Assignment, days)
	var previousType int64 = -1

	for day := 0; day < days; day++ {
		assignments[day] = Assignment{DayOffset: day}

		if len(typeIDs) == 0 {
			continue
		}

		eligible := make([]int64, 0, len(typeIDs))
		for _, id := range typeIDs {
			if id != previousType {
				eligible = append(eligible, id)
			}
		}
		if len(eligible) == 0 {
			// Only one meal type has recipes; allow the repeat rather
			// than leaving the day empty.
			eligible = typeIDs
		}

		chosenType := eligible[rng.Intn(len(eligible))]
		candidates := byType[chosenType]
		chosen := candidates[rng.Intn(len(candidates))]

		assignments[day].Recipe = &chosen
		previousType = chosenType
	}

	return assignments
}
