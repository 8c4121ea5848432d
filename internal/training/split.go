package training

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/leapstack-labs/loanprep/internal/selection"
)

// StratifiedSplit partitions row indices into train and test sets, keeping
// the class ratio of y in both. The same seed always yields the same split.
// Each class with at least two rows contributes at least one row to each side.
func StratifiedSplit(y selection.LabelVector, testSize float64, seed uint64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %.3f outside (0, 1)", testSize)
	}

	byClass := map[float64][]int{}
	for i, v := range y {
		if math.IsNaN(v) {
			return nil, nil, fmt.Errorf("row %d has a null label", i)
		}
		byClass[v] = append(byClass[v], i)
	}
	classes := make([]float64, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Float64s(classes)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		n := int(math.Round(float64(len(idx)) * testSize))
		if len(idx) >= 2 {
			n = max(1, min(n, len(idx)-1))
		}
		test = append(test, idx[:n]...)
		train = append(train, idx[n:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}
