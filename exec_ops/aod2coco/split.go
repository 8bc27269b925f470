package aod2coco

import (
	"fmt"
	"math"
	"math/rand"
)

// Randomly partitions items into (train, val) with a fixed seed.
// The validation set gets ceil(valRatio*n) items, the rest go to train.
// Both outputs keep the shuffled order.
func SplitTrainVal(items []string, valRatio float64, seed int64) (train []string, val []string, err error) {
	if valRatio < 0 || valRatio >= 1 {
		return nil, nil, fmt.Errorf("validation ratio must be in [0, 1), got %v", valRatio)
	}
	shuffled := append([]string{}, items...)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	numVal := int(math.Ceil(valRatio*float64(len(shuffled))))
	return shuffled[numVal:], shuffled[0:numVal], nil
}
