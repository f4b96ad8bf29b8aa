package solver

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/totw/internal/contracts"
)

// Solver picks the highest-expected-points legal eleven from a prediction
// pool. The objective is separable across players, so enumerating the legal
// formation shapes and taking the best players per position is exact; an
// optional cost ceiling switches the per-shape step to a cost-indexed
// dynamic program over integer price tenths, which stays exact.
type Solver struct {
	rules  contracts.FormationRules
	budget time.Duration
	log    zerolog.Logger
}

// Options tunes a single solve.
type Options struct {
	// CostCeiling caps the combined now-cost of the eleven, in price tenths.
	// Zero means unconstrained.
	CostCeiling int
}

// New creates a solver. budget bounds wall time per Solve call; zero means
// no limit.
func New(rules contracts.FormationRules, budget time.Duration, log zerolog.Logger) *Solver {
	return &Solver{
		rules:  rules,
		budget: budget,
		log:    log.With().Str("component", "solver").Logger(),
	}
}

// shape is one concrete formation, e.g. 1-4-4-2.
type shape struct {
	gkp, def, mid, fwd int
}

func (s shape) count(p contracts.Position) int {
	switch p {
	case contracts.PositionGKP:
		return s.gkp
	case contracts.PositionDEF:
		return s.def
	case contracts.PositionMID:
		return s.mid
	case contracts.PositionFWD:
		return s.fwd
	}
	return 0
}

// String renders the conventional DEF-MID-FWD label.
func (s shape) String() string {
	return fmt.Sprintf("%d-%d-%d", s.def, s.mid, s.fwd)
}

var positionOrder = []contracts.Position{
	contracts.PositionGKP,
	contracts.PositionDEF,
	contracts.PositionMID,
	contracts.PositionFWD,
}

// shapes enumerates every formation the rules allow, in a fixed order so
// equal-total ties resolve deterministically.
func (s *Solver) shapes() []shape {
	var out []shape
	for g := s.rules.MinGoalkeepers; g <= s.rules.MaxGoalkeepers; g++ {
		for d := s.rules.MinDefenders; d <= s.rules.MaxDefenders; d++ {
			for m := s.rules.MinMidfielders; m <= s.rules.MaxMidfielders; m++ {
				f := s.rules.TotalPlayers - g - d - m
				if f >= s.rules.MinForwards && f <= s.rules.MaxForwards {
					out = append(out, shape{gkp: g, def: d, mid: m, fwd: f})
				}
			}
		}
	}
	return out
}

// Solve returns the optimal legal eleven for the pool, or an explicit error
// when the pool cannot fill any legal shape or the time budget runs out.
func (s *Solver) Solve(round int, modelVersion string, pool []contracts.Prediction, opts Options) (*contracts.SelectedXI, error) {
	deadline := time.Time{}
	if s.budget > 0 {
		deadline = time.Now().Add(s.budget)
	}

	buckets := bucketByPosition(pool)
	if err := s.checkFeasible(buckets); err != nil {
		return nil, err
	}

	var (
		bestTotal = math.Inf(-1)
		bestShape shape
		bestTeam  []contracts.Prediction
		found     bool
	)

	for _, sh := range s.shapes() {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: exceeded %s across %d shapes", contracts.ErrSolverTimeout, s.budget, len(s.shapes()))
		}

		var team []contracts.Prediction
		var total float64
		var ok bool
		if opts.CostCeiling > 0 {
			team, total, ok = solveShapeBudget(buckets, sh, opts.CostCeiling)
		} else {
			team, total, ok = solveShapeGreedy(buckets, sh)
		}
		if !ok {
			continue
		}
		if !found || total > bestTotal {
			bestTotal, bestShape, bestTeam, found = total, sh, team, true
		}
	}

	if !found {
		if opts.CostCeiling > 0 {
			return nil, fmt.Errorf("%w: no legal eleven within cost ceiling %d", contracts.ErrInfeasibleFormation, opts.CostCeiling)
		}
		return nil, fmt.Errorf("%w: pool of %d fills no legal shape", contracts.ErrInfeasibleFormation, len(pool))
	}

	xi := &contracts.SelectedXI{
		Round:          round,
		ModelVersion:   modelVersion,
		Formation:      bestShape.String(),
		PredictedTotal: bestTotal,
		CreatedAt:      time.Now().UTC(),
	}
	for i, pred := range bestTeam {
		xi.Slots = append(xi.Slots, contracts.XISlot{
			Slot:       i + 1,
			PlayerID:   pred.PlayerID,
			Position:   pred.Position,
			Prediction: pred,
		})
	}

	s.log.Debug().
		Int("round", round).
		Str("formation", xi.Formation).
		Float64("predicted_total", bestTotal).
		Int("pool", len(pool)).
		Msg("eleven solved")

	return xi, nil
}

// checkFeasible verifies each position can cover its minimum, naming the
// first position that cannot.
func (s *Solver) checkFeasible(buckets map[contracts.Position][]contracts.Prediction) error {
	for _, p := range positionOrder {
		lo, _ := s.rules.Bounds(p)
		if len(buckets[p]) < lo {
			return &contracts.InfeasibleFormationError{Position: p, Have: len(buckets[p]), Required: lo}
		}
	}
	return nil
}

// bucketByPosition splits and rank-orders the pool. Ordering is expected
// points descending, then confidence descending, then player ID ascending,
// which makes every downstream pick deterministic.
func bucketByPosition(pool []contracts.Prediction) map[contracts.Position][]contracts.Prediction {
	buckets := make(map[contracts.Position][]contracts.Prediction, 4)
	for _, pred := range pool {
		buckets[pred.Position] = append(buckets[pred.Position], pred)
	}
	for _, bucket := range buckets {
		sort.Slice(bucket, func(i, j int) bool {
			if bucket[i].ExpectedPoints != bucket[j].ExpectedPoints {
				return bucket[i].ExpectedPoints > bucket[j].ExpectedPoints
			}
			if bucket[i].Confidence != bucket[j].Confidence {
				return bucket[i].Confidence > bucket[j].Confidence
			}
			return bucket[i].PlayerID < bucket[j].PlayerID
		})
	}
	return buckets
}

// solveShapeGreedy fills a shape with the top-ranked players per position.
// Exact for the unconstrained problem because the objective is a plain sum.
func solveShapeGreedy(buckets map[contracts.Position][]contracts.Prediction, sh shape) ([]contracts.Prediction, float64, bool) {
	var team []contracts.Prediction
	var total float64
	for _, p := range positionOrder {
		need := sh.count(p)
		bucket := buckets[p]
		if len(bucket) < need {
			return nil, 0, false
		}
		for _, pred := range bucket[:need] {
			team = append(team, pred)
			total += pred.ExpectedPoints
		}
	}
	return team, total, true
}

// solveShapeBudget fills a shape under a total cost ceiling. Each position
// runs a choose-k knapsack over price tenths, then the per-position tables
// merge with a second cost-indexed pass. Exact, at the price of O(cost²)
// in the merge.
func solveShapeBudget(buckets map[contracts.Position][]contracts.Prediction, sh shape, ceiling int) ([]contracts.Prediction, float64, bool) {
	type merged struct {
		// value[c] is the best points using exactly cost c so far; split[c]
		// is the cost spent on the latest merged position.
		value []float64
		split []int
	}

	tables := make([]*positionTable, 0, len(positionOrder))
	acc := merged{value: make([]float64, ceiling+1), split: make([]int, ceiling+1)}
	for c := range acc.value {
		acc.value[c] = math.Inf(-1)
	}
	acc.value[0] = 0

	history := make([]merged, 0, len(positionOrder))
	for _, p := range positionOrder {
		table, ok := buildPositionTable(buckets[p], sh.count(p), ceiling)
		if !ok {
			return nil, 0, false
		}
		tables = append(tables, table)

		next := merged{value: make([]float64, ceiling+1), split: make([]int, ceiling+1)}
		for c := range next.value {
			next.value[c] = math.Inf(-1)
			next.split[c] = -1
		}
		for prev := 0; prev <= ceiling; prev++ {
			if math.IsInf(acc.value[prev], -1) {
				continue
			}
			for cost := 0; prev+cost <= ceiling; cost++ {
				if math.IsInf(table.value[cost], -1) {
					continue
				}
				if v := acc.value[prev] + table.value[cost]; v > next.value[prev+cost] {
					next.value[prev+cost] = v
					next.split[prev+cost] = cost
				}
			}
		}
		history = append(history, next)
		acc = next
	}

	bestCost, bestValue := -1, math.Inf(-1)
	for c := 0; c <= ceiling; c++ {
		if acc.value[c] > bestValue {
			bestValue = acc.value[c]
			bestCost = c
		}
	}
	if bestCost < 0 {
		return nil, 0, false
	}

	// Walk the merge history backwards to recover each position's spend,
	// then each position's exact picks.
	perPosition := make([]int, len(positionOrder))
	remaining := bestCost
	for i := len(positionOrder) - 1; i >= 0; i-- {
		spend := history[i].split[remaining]
		perPosition[i] = spend
		remaining -= spend
	}

	var team []contracts.Prediction
	var total float64
	for i, p := range positionOrder {
		picks := tables[i].reconstruct(sh.count(p), perPosition[i])
		for _, idx := range picks {
			pred := buckets[p][idx]
			team = append(team, pred)
			total += pred.ExpectedPoints
		}
	}
	return team, total, true
}

// positionTable is the choose-k knapsack result for one position: the best
// points achievable at each exact cost, with enough bookkeeping to recover
// the picks.
type positionTable struct {
	need   int
	value  []float64 // [cost] best points choosing exactly need players
	choice [][]bool  // [candidate][need*(ceiling+1)+cost] candidate taken at state
	costs  []int
}

// buildPositionTable runs the layered DP. Returns ok=false when the bucket
// cannot supply `need` players at any cost within the ceiling.
func buildPositionTable(bucket []contracts.Prediction, need, ceiling int) (*positionTable, bool) {
	if len(bucket) < need {
		return nil, false
	}

	width := ceiling + 1
	states := (need + 1) * width
	cur := make([]float64, states)
	next := make([]float64, states)
	for i := range cur {
		cur[i] = math.Inf(-1)
	}
	cur[0] = 0 // zero players, zero cost

	table := &positionTable{
		need:   need,
		choice: make([][]bool, len(bucket)),
		costs:  make([]int, len(bucket)),
	}

	for i, pred := range bucket {
		cost := pred.NowCost
		table.costs[i] = cost
		taken := make([]bool, states)
		copy(next, cur)
		for j := 1; j <= need; j++ {
			for c := cost; c <= ceiling; c++ {
				from := (j-1)*width + (c - cost)
				if math.IsInf(cur[from], -1) {
					continue
				}
				to := j*width + c
				if v := cur[from] + pred.ExpectedPoints; v > next[to] {
					next[to] = v
					taken[to] = true
				}
			}
		}
		table.choice[i] = taken
		cur, next = next, cur
	}

	table.value = make([]float64, width)
	feasible := false
	for c := 0; c <= ceiling; c++ {
		table.value[c] = cur[need*width+c]
		if !math.IsInf(table.value[c], -1) {
			feasible = true
		}
	}
	if !feasible {
		return nil, false
	}
	return table, true
}

// reconstruct walks the choice layers backwards and returns the bucket
// indices picked for the (need, cost) state.
func (t *positionTable) reconstruct(need, cost int) []int {
	width := len(t.value)
	var picks []int
	j, c := need, cost
	for i := len(t.choice) - 1; i >= 0 && j > 0; i-- {
		if t.choice[i][j*width+c] {
			picks = append(picks, i)
			j--
			c -= t.costs[i]
		}
	}
	// Restore rank order within the position
	sort.Ints(picks)
	return picks
}
