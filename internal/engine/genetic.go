package engine

import (
	"math/rand"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/scoring"
)

// GeneticConfig holds parameters for the layout genetic algorithm.
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64 // per item
	MixProbability float64 // crossover: chance to inherit parent A's instance
	Jitter         float64 // crossover offset range in metres
	EliteFraction  float64
	RepairAttempts int // offspring rounds before falling back to a parent copy
	Workers        int // 0 = one per CPU
	Seed           int64
	MultiObjective bool
}

// DefaultGeneticConfig returns sensible default parameters.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 20,
		Generations:    30,
		MutationRate:   0.1,
		MixProbability: 0.7,
		Jitter:         0.5,
		EliteFraction:  0.5,
		RepairAttempts: 3,
		Seed:           42,
	}
}

// GeneticConfigFrom derives the GA parameters from search settings.
func GeneticConfigFrom(s model.SearchSettings) GeneticConfig {
	c := DefaultGeneticConfig()
	if s.PopulationSize > 0 {
		c.PopulationSize = s.PopulationSize
	}
	if s.Generations >= 0 {
		c.Generations = s.Generations
	}
	if s.MutationRate > 0 {
		c.MutationRate = s.MutationRate
	}
	if s.MixProbability > 0 {
		c.MixProbability = s.MixProbability
	}
	if s.Jitter > 0 {
		c.Jitter = s.Jitter
	}
	if s.EliteFraction > 0 {
		c.EliteFraction = s.EliteFraction
	}
	c.Workers = s.Workers
	c.Seed = s.Seed
	c.MultiObjective = s.Objective == model.ObjectiveMulti
	return c
}

// mutationReach is the offset range of a guided mutation, in metres.
const mutationReach = 1.0

// Individual is one scored layout in the population.
type Individual struct {
	Layout    *model.Layout
	Score     float64 // weighted scalar fitness
	Breakdown scoring.Breakdown
	Vector    []float64 // comfort, space, aesthetics, accessibility
	Rank      int       // Pareto front index, multi-objective mode only
	Crowding  float64
}

// GenerationStats records one generation for the run history.
type GenerationStats struct {
	Generation int     `json:"generation"`
	Best       float64 `json:"best"`
	Mean       float64 `json:"mean"`
	Offspring  int     `json:"offspring"` // valid children produced
}

// GeneticResult is the outcome of a GA run.
type GeneticResult struct {
	Best    Individual
	Front   []Individual // multi-objective mode only
	History []GenerationStats
}

// Genetic evolves layouts of a fixed item set. The coordinator (Run) owns the
// population and its random source; only evaluation runs on the pool.
type Genetic struct {
	problem *Problem
	config  GeneticConfig
	items   []*model.Furniture
	seed    *model.Layout
	pool    *Pool
	log     *log.Logger
	rng     *rand.Rand
}

// NewGenetic creates a GA over items. seed, when not nil, becomes the first
// member of the initial population; otherwise a strategy placement is used.
func NewGenetic(problem *Problem, config GeneticConfig, items []*model.Furniture, seed *model.Layout) *Genetic {
	def := DefaultGeneticConfig()
	if config.PopulationSize < 2 {
		config.PopulationSize = 2
	}
	if config.Generations < 0 {
		config.Generations = 0
	}
	if config.EliteFraction <= 0 || config.EliteFraction > 1 {
		config.EliteFraction = def.EliteFraction
	}
	if config.RepairAttempts <= 0 {
		config.RepairAttempts = def.RepairAttempts
	}
	return &Genetic{
		problem: problem,
		config:  config,
		items:   items,
		seed:    seed,
		pool:    NewPool(problem, config.Workers),
		log:     problem.logger(),
		rng:     newRand(config.Seed),
	}
}

// Run evolves the population for the configured number of generations.
func (g *Genetic) Run() GeneticResult {
	pop := g.initPopulation()
	if len(pop) == 0 {
		g.log.Warn("no valid initial layout, nothing to optimize")
		return GeneticResult{}
	}
	if g.config.MultiObjective {
		rankPopulation(pop)
	}
	history := []GenerationStats{summarize(0, pop, 0)}

	for gen := 1; gen <= g.config.Generations; gen++ {
		var next []Individual
		var valid int
		if g.config.MultiObjective {
			next, valid = g.stepMulti(pop)
		} else {
			next, valid = g.stepSingle(pop)
		}
		if valid == 0 {
			g.log.Warn("generation produced no valid offspring, keeping population", "generation", gen)
			next = pop
		}
		pop = next
		st := summarize(gen, pop, valid)
		history = append(history, st)
		g.log.Debug("generation done", "generation", gen, "best", st.Best, "mean", st.Mean, "offspring", valid)
	}
	return g.extract(pop, history)
}

// initPopulation builds one strategy-placed layout and fills the rest with
// scattered placements, all repaired by the rule engine. Layouts that end up
// invalid are replaced by copies of valid ones.
func (g *Genetic) initPopulation() []Individual {
	if len(g.items) == 0 {
		return nil
	}
	n := g.config.PopulationSize
	candidates := make([]*model.Layout, n)
	placer := g.problem.placer(g.rng.Int63(), false)
	if g.seed != nil {
		candidates[0] = g.seed
	} else {
		candidates[0], _ = placer.Place(g.items)
	}
	for i := 1; i < n; i++ {
		candidates[i], _ = placer.Scatter(g.items)
	}

	var pop []Individual
	for _, o := range g.pool.Evaluate(candidates, true) {
		if o.ok {
			pop = append(pop, o.ind)
		}
	}
	if len(pop) == 0 {
		return nil
	}
	for i := 0; len(pop) < n; i++ {
		pop = append(pop, pop[i])
	}
	return pop
}

// stepSingle keeps the top EliteFraction unchanged and breeds the rest from
// random elite pairs.
func (g *Genetic) stepSingle(pop []Individual) ([]Individual, int) {
	sorted := append([]Individual(nil), pop...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	elite := int(float64(len(sorted))*g.config.EliteFraction + 0.5)
	elite = max(1, min(elite, len(sorted)))
	elites := sorted[:elite]

	children, valid := g.breed(len(sorted)-elite, func() Individual {
		return elites[g.rng.Intn(len(elites))]
	})
	next := append(append([]Individual(nil), elites...), children...)
	return next, valid
}

// stepMulti breeds a full set of children by binary tournament and keeps the
// best half of parents plus children by NSGA-II selection.
func (g *Genetic) stepMulti(pop []Individual) ([]Individual, int) {
	children, valid := g.breed(len(pop), func() Individual { return g.tournament(pop) })
	combined := append(append([]Individual(nil), pop...), children...)
	return selectNSGA(combined, len(pop)), valid
}

func (g *Genetic) tournament(pop []Individual) Individual {
	a := pop[g.rng.Intn(len(pop))]
	b := pop[g.rng.Intn(len(pop))]
	if crowdedBetter(b, a) {
		return b
	}
	return a
}

// breed produces n children. Candidates are built on the coordinator and
// repaired on the pool; slots still invalid after RepairAttempts rounds get a
// re-sampled parent. valid counts the children that came from crossover.
func (g *Genetic) breed(n int, pick func() Individual) ([]Individual, int) {
	out := make([]Individual, n)
	done := make([]bool, n)
	valid := 0
	for round := 0; round < g.config.RepairAttempts && valid < n; round++ {
		var slots []int
		var candidates []*model.Layout
		for i := range out {
			if done[i] {
				continue
			}
			a, b := pick(), pick()
			child := g.crossover(a.Layout, b.Layout)
			g.mutate(child)
			slots = append(slots, i)
			candidates = append(candidates, child)
		}
		for k, o := range g.pool.Evaluate(candidates, true) {
			if o.ok {
				out[slots[k]] = o.ind
				done[slots[k]] = true
				valid++
			}
		}
	}
	for i := range out {
		if !done[i] {
			out[i] = pick()
		}
	}
	return out, valid
}

// crossover partitions both parents by furniture type and matches instances
// by id. An id present in both parents comes from a with probability
// MixProbability (otherwise from b); an id present in only one parent comes
// from that parent. Every inherited item is offset by up to Jitter on each
// axis, except fixed items, which keep their pose.
func (g *Genetic) crossover(a, b *model.Layout) *model.Layout {
	child := model.NewLayout()
	for _, t := range model.AllTypes {
		as, bs := a.ByType(t), b.ByType(t)
		fromA := make(map[string]*model.Furniture, len(as))
		fromB := make(map[string]*model.Furniture, len(bs))
		order := make([]string, 0, len(as)+len(bs))
		for _, f := range as {
			fromA[f.ID] = f
			order = append(order, f.ID)
		}
		for _, f := range bs {
			if _, ok := fromA[f.ID]; !ok {
				order = append(order, f.ID)
			}
			fromB[f.ID] = f
		}
		for _, id := range order {
			donor, inA := fromA[id]
			if other, inB := fromB[id]; inB && (!inA || g.rng.Float64() >= g.config.MixProbability) {
				donor = other
			}
			c := donor.Clone()
			if !g.problem.Constraints.IsFixed(c.ID) {
				c.MoveBy(g.uniform(g.config.Jitter), g.uniform(g.config.Jitter))
			}
			child.Add(c)
		}
	}
	return child
}

// mutate moves each unfixed item with probability MutationRate: toward a
// random item it must be near, or by a random offset when it has none
// present, then clamps it to its zone.
func (g *Genetic) mutate(l *model.Layout) {
	for _, f := range l.Items {
		if g.rng.Float64() >= g.config.MutationRate || g.problem.Constraints.IsFixed(f.ID) {
			continue
		}
		var related []*model.Furniture
		for _, o := range l.Items {
			if o.ID != f.ID && f.Requires(o.Type) {
				related = append(related, o)
			}
		}
		c := f.Center()
		if len(related) > 0 {
			c = related[g.rng.Intn(len(related))].Center()
		}
		c = orb.Point{c[0] + g.uniform(mutationReach), c[1] + g.uniform(mutationReach)}
		f.SetCenter(clampCenter(g.problem.zoneBound(f.Type), f, c))
	}
}

func (g *Genetic) uniform(r float64) float64 {
	return (g.rng.Float64()*2 - 1) * r
}

func (g *Genetic) extract(pop []Individual, history []GenerationStats) GeneticResult {
	res := GeneticResult{History: history}
	candidates := pop
	if g.config.MultiObjective {
		res.Front = ParetoFront(pop)
		candidates = res.Front
	}
	res.Best = bestOf(candidates)
	return res
}

// bestOf returns the individual with the highest scalar score, the first one
// on ties.
func bestOf(pop []Individual) Individual {
	best := pop[0]
	for _, ind := range pop[1:] {
		if ind.Score > best.Score {
			best = ind
		}
	}
	return best
}

func summarize(gen int, pop []Individual, offspring int) GenerationStats {
	best := pop[0].Score
	sum := 0.0
	for _, ind := range pop {
		sum += ind.Score
		if ind.Score > best {
			best = ind.Score
		}
	}
	return GenerationStats{Generation: gen, Best: best, Mean: sum / float64(len(pop)), Offspring: offspring}
}
