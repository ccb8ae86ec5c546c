package domain

import (
	"math/big"
	"strings"
	"testing"
	"time"
)

func sampleTuple() []any {
	return []any{
		big.NewInt(7),
		"Amazon Rainforest Conservation Plan",
		"Protect the Amazon rainforest ecosystem",
		"0x00000000000000000000000000000000000000aa",
		big.NewInt(1_000_000_000_000_000_000),
		big.NewInt(1_700_000_000),
		big.NewInt(1_700_432_000),
		true,
		false,
		false,
		big.NewInt(5),
		big.NewInt(3),
		big.NewInt(250_000_000_000_000_000),
	}
}

func TestFormatProjectData(t *testing.T) {
	p, err := FormatProjectData(sampleTuple())
	if err != nil {
		t.Fatalf("FormatProjectData error: %v", err)
	}
	if p.ID.Int64() != 7 {
		t.Fatalf("ID = %s, want 7", p.ID)
	}
	if p.Title != "Amazon Rainforest Conservation Plan" {
		t.Fatalf("Title = %q", p.Title)
	}
	if p.TargetAmount.String() != "1000000000000000000" {
		t.Fatalf("TargetAmount = %s", p.TargetAmount)
	}
	if !p.IsActive || p.IsCompleted || p.FundsWithdrawn {
		t.Fatalf("flags = %v %v %v", p.IsActive, p.IsCompleted, p.FundsWithdrawn)
	}
	if p.TotalDonationsEncrypted.Int64() != 5 || p.DonorCount.Int64() != 3 {
		t.Fatalf("index 10/11 mismatch: %s %s", p.TotalDonationsEncrypted, p.DonorCount)
	}
	if p.TotalDonationsPublic.String() != "250000000000000000" {
		t.Fatalf("TotalDonationsPublic = %s", p.TotalDonationsPublic)
	}
}

func TestFormatProjectDataRoundTripsTuple(t *testing.T) {
	p, err := FormatProjectData(sampleTuple())
	if err != nil {
		t.Fatalf("FormatProjectData error: %v", err)
	}
	again, err := FormatProjectData(p.Tuple())
	if err != nil {
		t.Fatalf("FormatProjectData(Tuple) error: %v", err)
	}
	fields := [][2]*big.Int{
		{p.ID, again.ID},
		{p.TargetAmount, again.TargetAmount},
		{p.AuctionStartTime, again.AuctionStartTime},
		{p.AuctionEndTime, again.AuctionEndTime},
		{p.TotalDonationsEncrypted, again.TotalDonationsEncrypted},
		{p.DonorCount, again.DonorCount},
		{p.TotalDonationsPublic, again.TotalDonationsPublic},
	}
	for i, pair := range fields {
		if pair[0].Cmp(pair[1]) != 0 {
			t.Fatalf("field %d: %s != %s", i, pair[0], pair[1])
		}
	}
	if again.IsActive != p.IsActive || again.Beneficiary != p.Beneficiary {
		t.Fatalf("tuple round trip lost data: %+v", again)
	}
}

func TestTupleRendersEncryptedTotalAsHandle(t *testing.T) {
	handle, _ := new(big.Int).SetString("ab00000000000000000000000000000000000000000000000000000000000001", 16)
	tuple := Project{ID: big.NewInt(1), TotalDonationsEncrypted: handle}.Tuple()
	if got := tuple[10]; got != "0xab00000000000000000000000000000000000000000000000000000000000001" {
		t.Fatalf("tuple[10] = %v", got)
	}
	if got := (Project{}).Tuple()[10]; got != "0x"+strings.Repeat("0", 64) {
		t.Fatalf("zero handle = %v", got)
	}
}

func TestFormatProjectDataMissingValuesDefaultToZero(t *testing.T) {
	p, err := FormatProjectData([]any{nil, nil})
	if err != nil {
		t.Fatalf("FormatProjectData error: %v", err)
	}
	if p.ID.Sign() != 0 || p.Title != "" || p.IsActive || p.DonorCount.Sign() != 0 {
		t.Fatalf("expected zero project, got %+v", p)
	}
	if p.Exists() {
		t.Fatal("zero project should not exist")
	}
}

func TestFormatProjectDataAcceptsWordAndStrings(t *testing.T) {
	raw := sampleTuple()
	var word [32]byte
	word[31] = 9
	raw[10] = word
	raw[11] = "0x0a"
	raw[7] = "true"
	p, err := FormatProjectData(raw)
	if err != nil {
		t.Fatalf("FormatProjectData error: %v", err)
	}
	if p.TotalDonationsEncrypted.Int64() != 9 || p.DonorCount.Int64() != 10 || !p.IsActive {
		t.Fatalf("unexpected parse: %+v", p)
	}
}

func TestFormatProjectDataRejectsGarbageNumber(t *testing.T) {
	raw := sampleTuple()
	raw[4] = "twelve"
	if _, err := FormatProjectData(raw); err == nil {
		t.Fatal("expected error for non-numeric target")
	}
}

func TestCalculateProgress(t *testing.T) {
	tests := []struct {
		current, target int64
		want            int
	}{
		{50, 100, 50},
		{0, 100, 0},
		{100, 0, 0},
		{0, 0, 0},
		{150, 100, 100},
		{1, 3, 33},
		{99, 100, 99},
	}
	for _, tc := range tests {
		got := CalculateProgress(big.NewInt(tc.current), big.NewInt(tc.target))
		if got != tc.want {
			t.Fatalf("CalculateProgress(%d, %d) = %d, want %d", tc.current, tc.target, got, tc.want)
		}
		if got < 0 || got > 100 {
			t.Fatalf("CalculateProgress out of range: %d", got)
		}
	}
}

func TestCanDonate(t *testing.T) {
	p := Project{
		IsActive:         true,
		AuctionStartTime: big.NewInt(1000),
		AuctionEndTime:   big.NewInt(2000),
	}
	tests := []struct {
		name string
		now  int64
		want bool
	}{
		{"before start", 999, false},
		{"at start", 1000, true},
		{"inside", 1500, true},
		{"exact end", 2000, false},
		{"after end", 2001, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanDonate(p, time.Unix(tc.now, 0)); got != tc.want {
				t.Fatalf("CanDonate at %d = %v, want %v", tc.now, got, tc.want)
			}
		})
	}

	p.IsActive = false
	if CanDonate(p, time.Unix(1500, 0)) {
		t.Fatal("inactive project must not accept donations")
	}
}

func TestCanWithdraw(t *testing.T) {
	base := Project{
		TargetAmount:   big.NewInt(100),
		AuctionEndTime: big.NewInt(2000),
	}
	tests := []struct {
		name      string
		withdrawn bool
		current   int64
		now       int64
		want      bool
	}{
		{"running below target", false, 50, 1500, false},
		{"target reached early", false, 100, 1500, true},
		{"expired below target", false, 10, 2000, true},
		{"already withdrawn", true, 100, 2500, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			p.FundsWithdrawn = tc.withdrawn
			if got := CanWithdraw(p, big.NewInt(tc.current), time.Unix(tc.now, 0)); got != tc.want {
				t.Fatalf("CanWithdraw = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTimeRemaining(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	tests := []struct {
		delta int64
		want  string
	}{
		{-5, "Ended"},
		{0, "Ended"},
		{59, "0 minutes"},
		{600, "10 minutes"},
		{3600, "1 hours"},
		{2*86400 + 100, "2 days"},
	}
	for _, tc := range tests {
		end := big.NewInt(now.Unix() + tc.delta)
		if got := TimeRemaining(end, now); got != tc.want {
			t.Fatalf("TimeRemaining(+%d) = %q, want %q", tc.delta, got, tc.want)
		}
	}
}

func TestProjectStatus(t *testing.T) {
	if got := ProjectStatus(Project{IsCompleted: true}, false); got != "Project completed" {
		t.Fatalf("got %q", got)
	}
	if got := ProjectStatus(Project{IsActive: false}, false); got != "Project paused" {
		t.Fatalf("got %q", got)
	}
	if got := ProjectStatus(Project{IsActive: true}, true); got != "Project ended" {
		t.Fatalf("got %q", got)
	}
	if got := ProjectStatus(Project{IsActive: true}, false); got != "Project ongoing" {
		t.Fatalf("got %q", got)
	}
}

func TestCreatorStatus(t *testing.T) {
	if got := CreatorStatus(Project{FundsWithdrawn: true}, 100, true); got != "Funds withdrawn" {
		t.Fatalf("got %q", got)
	}
	if got := CreatorStatus(Project{IsCompleted: true}, 10, false); got != "Project completed" {
		t.Fatalf("got %q", got)
	}
	if got := CreatorStatus(Project{}, 100, false); got != "Can withdraw funds" {
		t.Fatalf("got %q", got)
	}
	if got := CreatorStatus(Project{}, 40, false); got != "Project ongoing" {
		t.Fatalf("got %q", got)
	}
}
