package s0_data

import "github.com/wonny/gem/backend/internal/contracts"

// FilterValid returns the observations whose valid-data flag is set.
// Order and original indices are preserved; cloud flags are not inspected.
func FilterValid(observations []contracts.Observation) []contracts.Observation {
	valid := make([]contracts.Observation, 0, len(observations))
	for _, o := range observations {
		if o.Sample.HasData() {
			valid = append(valid, o)
		}
	}
	return valid
}
