package domain

import "math/big"

// PlatformStats is the aggregate returned by getPlatformStats. The contract
// recomputes it on every read.
type PlatformStats struct {
	TotalProjects        *big.Int
	ActiveProjects       *big.Int
	CompletedProjects    *big.Int
	TotalDonationsAmount *big.Int
	TotalDonors          *big.Int
}

// StatsFromValues maps the five positional getPlatformStats outputs.
func StatsFromValues(values []any) (PlatformStats, error) {
	nums := make([]*big.Int, 5)
	for i := range nums {
		var v any
		if i < len(values) {
			v = values[i]
		}
		n, err := ToBigInt(v)
		if err != nil {
			return PlatformStats{}, err
		}
		nums[i] = n
	}
	return PlatformStats{
		TotalProjects:        nums[0],
		ActiveProjects:       nums[1],
		CompletedProjects:    nums[2],
		TotalDonationsAmount: nums[3],
		TotalDonors:          nums[4],
	}, nil
}

// ProgressFromValues maps the three positional getProjectProgress outputs.
func ProgressFromValues(values []any) (ProjectProgress, error) {
	nums := make([]*big.Int, 3)
	for i := range nums {
		var v any
		if i < len(values) {
			v = values[i]
		}
		n, err := ToBigInt(v)
		if err != nil {
			return ProjectProgress{}, err
		}
		nums[i] = n
	}
	return ProjectProgress{CurrentAmount: nums[0], TargetAmount: nums[1], DonorCount: nums[2]}, nil
}
