package engine

import (
	"math"
	"sort"
)

// Dominates reports whether a is at least as good as b on every objective and
// strictly better on at least one. Higher is better.
func Dominates(a, b []float64) bool {
	better := false
	for i := range a {
		if a[i] < b[i] {
			return false
		}
		if a[i] > b[i] {
			better = true
		}
	}
	return better
}

// NonDominatedSort splits pop into Pareto fronts, best first, and sets each
// individual's Rank to its front index.
func NonDominatedSort(pop []Individual) [][]int {
	n := len(pop)
	dominated := make([][]int, n) // indices each individual dominates
	count := make([]int, n)       // how many individuals dominate it
	var fronts [][]int
	var current []int
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if Dominates(pop[i].Vector, pop[j].Vector) {
				dominated[i] = append(dominated[i], j)
			} else if Dominates(pop[j].Vector, pop[i].Vector) {
				count[i]++
			}
		}
		if count[i] == 0 {
			pop[i].Rank = 0
			current = append(current, i)
		}
	}
	for len(current) > 0 {
		fronts = append(fronts, current)
		var next []int
		for _, i := range current {
			for _, j := range dominated[i] {
				count[j]--
				if count[j] == 0 {
					pop[j].Rank = len(fronts)
					next = append(next, j)
				}
			}
		}
		sort.Ints(next)
		current = next
	}
	return fronts
}

// assignCrowding sets the crowding distance of every member of front.
// Boundary members on any objective get +Inf.
func assignCrowding(pop []Individual, front []int) {
	for _, i := range front {
		pop[i].Crowding = 0
	}
	if len(front) == 0 {
		return
	}
	objectives := len(pop[front[0]].Vector)
	order := make([]int, len(front))
	for m := 0; m < objectives; m++ {
		copy(order, front)
		sort.SliceStable(order, func(a, b int) bool {
			return pop[order[a]].Vector[m] < pop[order[b]].Vector[m]
		})
		lo, hi := pop[order[0]].Vector[m], pop[order[len(order)-1]].Vector[m]
		pop[order[0]].Crowding = math.Inf(1)
		pop[order[len(order)-1]].Crowding = math.Inf(1)
		if hi-lo <= 0 {
			continue
		}
		for k := 1; k < len(order)-1; k++ {
			pop[order[k]].Crowding += (pop[order[k+1]].Vector[m] - pop[order[k-1]].Vector[m]) / (hi - lo)
		}
	}
}

// rankPopulation sets Rank and Crowding for every individual.
func rankPopulation(pop []Individual) [][]int {
	fronts := NonDominatedSort(pop)
	for _, f := range fronts {
		assignCrowding(pop, f)
	}
	return fronts
}

// crowdedBetter is the NSGA-II crowded comparison: lower rank wins, then
// larger crowding distance.
func crowdedBetter(a, b Individual) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	return a.Crowding > b.Crowding
}

// selectNSGA keeps n individuals from pop, filling front by front and
// breaking the last front by crowding distance.
func selectNSGA(pop []Individual, n int) []Individual {
	fronts := rankPopulation(pop)
	out := make([]Individual, 0, n)
	for _, front := range fronts {
		if len(out)+len(front) <= n {
			for _, i := range front {
				out = append(out, pop[i])
			}
			continue
		}
		last := append([]int(nil), front...)
		sort.SliceStable(last, func(a, b int) bool {
			return pop[last[a]].Crowding > pop[last[b]].Crowding
		})
		for _, i := range last[:n-len(out)] {
			out = append(out, pop[i])
		}
		break
	}
	rankPopulation(out)
	return out
}

// ParetoFront returns the non-dominated members of pop, dropping duplicates
// with identical layouts.
func ParetoFront(pop []Individual) []Individual {
	if len(pop) == 0 {
		return nil
	}
	cp := append([]Individual(nil), pop...)
	fronts := NonDominatedSort(cp)
	var out []Individual
	for _, i := range fronts[0] {
		dup := false
		for _, o := range out {
			if o.Layout.Equal(cp[i].Layout, 1e-9) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, cp[i])
		}
	}
	return out
}
