package population

import (
	"cmp"
	"fmt"
	"math/rand"
	"slices"
)

// Selector fills parents from pop.
type Selector func(pop, parents *Population, rng *rand.Rand)

// Tournament selects without replacement: pop is shuffled, split into
// groups of size s and the best of each group is copied into parents. This
// repeats until parents is full.
func Tournament(s int) Selector {
	if s < 1 {
		s = 1
	}
	return func(pop, parents *Population, rng *rand.Rand) {
		size := pop.Size()
		if size == 0 {
			return
		}
		perm := make([]int, size)
		for i := range perm {
			perm[i] = i
		}
		group := min(s, size)
		filled := 0
		for filled < parents.Size() {
			rng.Shuffle(size, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
			for start := 0; start+group <= size && filled < parents.Size(); start += group {
				winner := perm[start]
				for _, k := range perm[start+1 : start+group] {
					if pop.F[k] > pop.F[winner] {
						winner = k
					}
				}
				parents.Copy(filled, pop.X[winner], pop.F[winner])
				filled++
			}
		}
	}
}

// Truncation keeps the best 1/s of pop and copies each of them s times,
// cycling until parents is full.
func Truncation(s int) Selector {
	if s < 1 {
		s = 1
	}
	return func(pop, parents *Population, _ *rand.Rand) {
		size := pop.Size()
		if size == 0 {
			return
		}
		order := ranked(pop)
		keep := max(size/s, 1)
		for i := 0; i < parents.Size(); i++ {
			k := order[i%keep]
			parents.Copy(i, pop.X[k], pop.F[k])
		}
	}
}

// NewSelector maps a configured selection name to a Selector.
func NewSelector(name string, size int) (Selector, error) {
	switch name {
	case "tournament":
		return Tournament(size), nil
	case "truncation":
		return Truncation(size), nil
	default:
		return nil, fmt.Errorf("unknown selection %q", name)
	}
}

// ReplaceWorst overwrites the least fit rows of pop with offspring.
func ReplaceWorst(pop, offspring *Population) {
	order := ranked(pop)
	m := min(offspring.Size(), pop.Size())
	for i := 0; i < m; i++ {
		where := order[len(order)-1-i]
		pop.Copy(where, offspring.X[i], offspring.F[i])
	}
}

// ranked returns row indices by decreasing fitness, stable on ties.
func ranked(pop *Population) []int {
	order := make([]int, pop.Size())
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(pop.F[b], pop.F[a])
	})
	return order
}
