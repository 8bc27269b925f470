package skyhook

import (
	"fmt"
)

// DOTA v1.0 categories.
var DOTAClasses15 = []string{
	"plane", "baseball-diamond", "bridge", "ground-track-field",
	"small-vehicle", "large-vehicle", "ship", "tennis-court",
	"basketball-court", "storage-tank", "soccer-ball-field", "roundabout",
	"harbor", "swimming-pool", "helicopter",
}

// DOTA v1.5 adds container-crane.
var DOTAClasses16 = append(append([]string{}, DOTAClasses15...), "container-crane")

func DOTAVocabulary(version string) ([]string, error) {
	switch version {
	case "", "1.0":
		return DOTAClasses15, nil
	case "1.5":
		return DOTAClasses16, nil
	}
	return nil, fmt.Errorf("unknown DOTA version %s (expected 1.0 or 1.5)", version)
}

// Returns an error naming the first class that is not in the vocabulary
// or that is listed twice.
func CheckClasses(classes []string, vocabulary []string) error {
	known := make(map[string]bool)
	for _, name := range vocabulary {
		known[name] = true
	}
	seen := make(map[string]bool)
	for _, name := range classes {
		if !known[name] {
			return fmt.Errorf("unknown class %q, expected one of %v", name, vocabulary)
		}
		if seen[name] {
			return fmt.Errorf("class %q is listed more than once", name)
		}
		seen[name] = true
	}
	return nil
}
