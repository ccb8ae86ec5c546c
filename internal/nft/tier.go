package nft

import (
	"math/big"
)

// Tier ranks a donation from 1 (Bronze) to 4 (Platinum).
type Tier int

const (
	Bronze Tier = iota + 1
	Silver
	Gold
	Platinum
)

// UnitDecimals is the number of decimals of the display unit tiers are
// measured in.
const UnitDecimals = 6

// TierInfo describes one tier.
type TierInfo struct {
	Tier      Tier
	Name      string
	Emoji     string
	Threshold int64
	Rarity    string
	Color     string
}

var tiers = []TierInfo{
	{Tier: Bronze, Name: "Bronze Contributor", Emoji: "🥉", Threshold: 10_000_000, Rarity: "Common", Color: "from-orange-600 to-red-600"},
	{Tier: Silver, Name: "Silver Supporter", Emoji: "🥈", Threshold: 50_000_000, Rarity: "Uncommon", Color: "from-gray-400 to-gray-600"},
	{Tier: Gold, Name: "Gold Protector", Emoji: "🥇", Threshold: 100_000_000, Rarity: "Rare", Color: "from-yellow-400 to-orange-500"},
	{Tier: Platinum, Name: "Platinum Guardian", Emoji: "💎", Threshold: 500_000_000, Rarity: "Legendary", Color: "from-purple-500 to-pink-500"},
}

// Info returns the descriptor of t. Unknown tiers map to Bronze.
func (t Tier) Info() TierInfo {
	if t < Bronze || t > Platinum {
		return tiers[0]
	}
	return tiers[t-1]
}

// Tiers lists every tier in ascending order.
func Tiers() []TierInfo {
	return append([]TierInfo(nil), tiers...)
}

// CalculateDonationTier maps an amount in display units to its tier. The
// Bronze threshold is informational; anything below Silver is Bronze.
func CalculateDonationTier(units *big.Int) TierInfo {
	if units == nil {
		return tiers[0]
	}
	for i := len(tiers) - 1; i > 0; i-- {
		if units.Cmp(big.NewInt(tiers[i].Threshold)) >= 0 {
			return tiers[i]
		}
	}
	return tiers[0]
}

var weiPerUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18-UnitDecimals), nil)

// WeiToUnits converts an ETH amount in wei into display units.
func WeiToUnits(wei *big.Int) *big.Int {
	if wei == nil || wei.Sign() <= 0 {
		return new(big.Int)
	}
	return new(big.Int).Quo(wei, weiPerUnit)
}

// FormatTokenAmount renders display units with two decimals.
func FormatTokenAmount(units *big.Int) string {
	if units == nil {
		units = new(big.Int)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(UnitDecimals), nil)
	return new(big.Rat).SetFrac(units, scale).FloatString(2)
}
