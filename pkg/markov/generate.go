package markov

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"
)

var (
	// errNoChoices means a source token has an empty destination set.
	errNoChoices = errors.New("no destination tokens to choose from")
	// errZeroWeight means every destination of a source token has zero weight.
	errZeroWeight = errors.New("destination weights sum to zero")
)

// StartPolicy selects the token a Generator walks from on its first step.
type StartPolicy int

const (
	// StartFromBoundary starts from the Boundary's outgoing distribution when
	// Boundary is a known source, and otherwise from a random known source.
	StartFromBoundary StartPolicy = iota
	// StartRandom starts from a source chosen uniformly from all known
	// sources, Boundary included.
	StartRandom
)

// generateOptions Is used by the Generator to configure default options.
type generateOptions struct {
	canEndEarly bool
	temperature float64
	topK        int
	start       StartPolicy
	rng         *rand.Rand
}

// GenerateOption is a function that configures generation parameters. It's
// used as a variadic argument to NewGenerator.
type GenerateOption func(*generateOptions)

// WithEarlyTermination specifies whether generation stops at the first
// Boundary reached after the start. When false, a Boundary is walked through
// like any other token and generation continues with a new chain.
func WithEarlyTermination(canEnd bool) GenerateOption {
	return func(o *generateOptions) { o.canEndEarly = canEnd }
}

// WithTemperature adjusts the randomness of the token selection.
// A value of 1.0 is standard weighted random selection on the raw counts.
// Values > 1.0 increase randomness (making less frequent tokens more likely).
// Values < 1.0 decrease randomness (making more frequent tokens even more likely).
// A value of 0 or less results in deterministic selection (always choosing the most frequent token).
func WithTemperature(t float64) GenerateOption {
	return func(o *generateOptions) { o.temperature = t }
}

// WithTopK restricts the token selection pool to the top `k` most frequent tokens
// at each step. A value of 0 disables Top-K sampling.
func WithTopK(k int) GenerateOption {
	return func(o *generateOptions) { o.topK = k }
}

// WithStartPolicy sets how the first source token is chosen.
func WithStartPolicy(p StartPolicy) GenerateOption {
	return func(o *generateOptions) { o.start = p }
}

// WithSeed makes generation reproducible by seeding the Generator's own
// random source.
func WithSeed(seed uint64) GenerateOption {
	return func(o *generateOptions) {
		o.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand sets the random source. The Generator becomes its only user.
func WithRand(r *rand.Rand) GenerateOption {
	return func(o *generateOptions) {
		if r != nil {
			o.rng = r
		}
	}
}

// chooseNextToken draws one destination from choices, weighted by count.
// It fails on an empty destination set or a zero total weight; callers treat
// that as a dead end.
func chooseNextToken(rng *rand.Rand, choices []ChainToken, totalFreq uint64, options *generateOptions) (Token, error) {
	if len(choices) == 0 {
		return Token{}, errNoChoices
	}
	if totalFreq == 0 {
		return Token{}, errZeroWeight
	}

	// topK filtering
	if options.topK > 0 && options.topK < len(choices) {
		choices = slices.Clone(choices)
		slices.SortStableFunc(choices, func(a, b ChainToken) int {
			switch {
			case a.Freq > b.Freq:
				return -1
			case a.Freq < b.Freq:
				return 1
			default:
				return 0
			}
		})
		choices = choices[:options.topK]
		totalFreq = 0
		for _, choice := range choices {
			totalFreq += uint64(choice.Freq)
		}
		if totalFreq == 0 {
			return Token{}, errZeroWeight
		}
	}

	// temperature selection
	if options.temperature <= 0 { // Deterministic
		best := 0
		for i, choice := range choices {
			if choice.Freq > choices[best].Freq {
				best = i
			}
		}
		return choices[best].Token, nil
	} else if options.temperature == 1.0 { // Standard weighted random
		randChoice := rng.Uint64N(totalFreq)
		for _, choice := range choices {
			if randChoice < uint64(choice.Freq) {
				return choice.Token, nil
			}
			randChoice -= uint64(choice.Freq)
		}
		return Token{}, errZeroWeight
	}

	// Temperature-based sampling
	logProbabilities := make([]float64, len(choices))
	epsilon := math.Inf(-1)
	for i, choice := range choices {
		lp := math.Inf(-1)
		if choice.Freq > 0 {
			lp = math.Log(float64(choice.Freq)) / options.temperature
		}
		logProbabilities[i] = lp
		if lp > epsilon {
			epsilon = lp
		}
	}
	if math.IsInf(epsilon, -1) {
		return Token{}, errZeroWeight
	}
	var totalWeight float64
	weights := make([]float64, len(choices))
	for i, lp := range logProbabilities {
		w := math.Exp(lp - epsilon)
		weights[i] = w
		totalWeight += w
	}
	randChoice := rng.Float64() * totalWeight
	for i, choice := range choices {
		randChoice -= weights[i]
		if randChoice < 0 && weights[i] > 0 {
			return choice.Token, nil
		}
	}
	// Rounding can leave randChoice a hair above zero; take the last weighted choice.
	for i := len(choices) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return choices[i].Token, nil
		}
	}
	return Token{}, errZeroWeight
}
