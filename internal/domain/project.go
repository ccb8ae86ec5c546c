package domain

import (
	"fmt"
	"math/big"
	"time"
)

// ProjectFieldCount is the arity of the contract's projects(uint256) tuple.
const ProjectFieldCount = 13

// Project mirrors one entry of the contract's projects mapping. The contract
// owns every field; this is a read-only view.
type Project struct {
	ID                      *big.Int
	Title                   string
	Description             string
	Beneficiary             string
	TargetAmount            *big.Int
	AuctionStartTime        *big.Int
	AuctionEndTime          *big.Int
	IsActive                bool
	IsCompleted             bool
	FundsWithdrawn          bool
	TotalDonationsEncrypted *big.Int
	DonorCount              *big.Int
	TotalDonationsPublic    *big.Int
}

// ProjectProgress is the result of getProjectProgress.
type ProjectProgress struct {
	CurrentAmount *big.Int
	TargetAmount  *big.Int
	DonorCount    *big.Int
}

// UserParticipation lists project ids a wallet created or donated to.
type UserParticipation struct {
	CreatedProjects []*big.Int
	DonatedProjects []*big.Int
}

// ProjectWithRelation annotates a project with the viewer's relation to it.
type ProjectWithRelation struct {
	Project
	IsCreator bool
	IsDonor   bool
}

// Exists reports whether the record refers to a created project. The contract
// returns a zeroed tuple for unknown ids.
func (p Project) Exists() bool {
	return p.ID != nil && p.ID.Sign() > 0
}

// Tuple renders the project in the 13-element positional layout of the
// projects(uint256) getter, with integers as decimal strings and the
// encrypted total as its 0x-prefixed bytes32 handle.
func (p Project) Tuple() []any {
	return []any{
		decimal(p.ID),
		p.Title,
		p.Description,
		p.Beneficiary,
		decimal(p.TargetAmount),
		decimal(p.AuctionStartTime),
		decimal(p.AuctionEndTime),
		p.IsActive,
		p.IsCompleted,
		p.FundsWithdrawn,
		HandleHex(p.TotalDonationsEncrypted),
		decimal(p.DonorCount),
		decimal(p.TotalDonationsPublic),
	}
}

// FormatProjectData parses a raw projects(uint256) tuple. Missing values parse
// to zero values; numbers may be big ints, machine integers, byte words or
// decimal/hex strings.
func FormatProjectData(raw []any) (Project, error) {
	at := func(i int) any {
		if i < len(raw) {
			return raw[i]
		}
		return nil
	}
	var p Project
	var err error
	num := func(i int) *big.Int {
		if err != nil {
			return new(big.Int)
		}
		v, convErr := ToBigInt(at(i))
		if convErr != nil {
			err = fmt.Errorf("project field %d: %w", i, convErr)
			return new(big.Int)
		}
		return v
	}
	p.ID = num(0)
	p.Title = toString(at(1))
	p.Description = toString(at(2))
	p.Beneficiary = toString(at(3))
	p.TargetAmount = num(4)
	p.AuctionStartTime = num(5)
	p.AuctionEndTime = num(6)
	p.IsActive = toBool(at(7))
	p.IsCompleted = toBool(at(8))
	p.FundsWithdrawn = toBool(at(9))
	p.TotalDonationsEncrypted = num(10)
	p.DonorCount = num(11)
	p.TotalDonationsPublic = num(12)
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

// CalculateProgress returns the funded percentage clamped to [0,100]. A zero
// target yields 0.
func CalculateProgress(current, target *big.Int) int {
	if target == nil || target.Sign() <= 0 || current == nil || current.Sign() <= 0 {
		return 0
	}
	pct := new(big.Int).Mul(current, big.NewInt(100))
	pct.Quo(pct, target)
	if pct.Cmp(big.NewInt(100)) >= 0 {
		return 100
	}
	return int(pct.Int64())
}

// CanDonate reports whether the project accepts donations at now: it must be
// active and now must fall in [start, end).
func CanDonate(p Project, now time.Time) bool {
	ts := big.NewInt(now.Unix())
	return p.IsActive &&
		ts.Cmp(orZero(p.AuctionStartTime)) >= 0 &&
		ts.Cmp(orZero(p.AuctionEndTime)) < 0
}

// CanWithdraw reports whether funds may be withdrawn: not yet withdrawn and
// either the window has closed or the target is reached.
func CanWithdraw(p Project, current *big.Int, now time.Time) bool {
	ts := big.NewInt(now.Unix())
	expired := ts.Cmp(orZero(p.AuctionEndTime)) >= 0
	reached := orZero(current).Cmp(orZero(p.TargetAmount)) >= 0
	return !p.FundsWithdrawn && (expired || reached)
}

// IsExpired reports whether the donation window has closed at now.
func IsExpired(p Project, now time.Time) bool {
	return big.NewInt(now.Unix()).Cmp(orZero(p.AuctionEndTime)) >= 0
}

// TimeRemaining renders the time left until end as whole days, hours or minutes.
func TimeRemaining(end *big.Int, now time.Time) string {
	remaining := new(big.Int).Sub(orZero(end), big.NewInt(now.Unix()))
	if remaining.Sign() <= 0 {
		return "Ended"
	}
	secs := remaining.Int64()
	if !remaining.IsInt64() {
		secs = 1<<63 - 1
	}
	switch {
	case secs >= 86400:
		return fmt.Sprintf("%d days", secs/86400)
	case secs >= 3600:
		return fmt.Sprintf("%d hours", secs/3600)
	default:
		return fmt.Sprintf("%d minutes", secs/60)
	}
}

// ProjectStatus is the public-facing status label.
func ProjectStatus(p Project, expired bool) string {
	if p.IsCompleted || p.FundsWithdrawn {
		return "Project completed"
	}
	if !p.IsActive {
		return "Project paused"
	}
	if expired {
		return "Project ended"
	}
	return "Project ongoing"
}

// CreatorStatus is the status label shown to the project's beneficiary.
func CreatorStatus(p Project, progress int, expired bool) string {
	if p.FundsWithdrawn {
		return "Funds withdrawn"
	}
	if p.IsCompleted {
		return "Project completed"
	}
	if expired || progress >= 100 {
		return "Can withdraw funds"
	}
	return "Project ongoing"
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func decimal(v *big.Int) string {
	return orZero(v).String()
}

// HandleHex renders a ciphertext handle as a 0x-prefixed, zero-padded
// bytes32 hex string.
func HandleHex(v *big.Int) string {
	return fmt.Sprintf("0x%064x", orZero(v))
}
