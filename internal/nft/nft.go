package nft

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// VirtualNFT is a cosmetic reward recorded after a confirmed donation. It is
// a projection of on-chain facts and never authoritative.
type VirtualNFT struct {
	ID             string `json:"id"`
	ProjectID      string `json:"projectId"`
	ProjectTitle   string `json:"projectTitle"`
	DonorAddress   string `json:"donorAddress"`
	DonationAmount string `json:"donationAmount"`
	Timestamp      int64  `json:"timestamp"`
	Tier           Tier   `json:"tier"`
	TierName       string `json:"tierName"`
	TierEmoji      string `json:"tierEmoji"`
	Message        string `json:"message,omitempty"`
	ImageURL       string `json:"imageUrl"`
	TxHash         string `json:"txHash,omitempty"`
	Contract       string `json:"contract,omitempty"`
	Theme          Theme  `json:"theme,omitempty"`
	Reconciled     bool   `json:"reconciled"`
	// ReconcileCheckedAt is the unix millis of the last check that did not
	// reconcile the record.
	ReconcileCheckedAt int64 `json:"reconcileCheckedAt,omitempty"`
}

// GenerateInput carries the facts a VirtualNFT is derived from.
type GenerateInput struct {
	ProjectID    *big.Int
	ProjectTitle string
	Donor        string
	AmountWei    *big.Int
	Message      string
	Theme        string
	TxHash       string
	Contract     string
}

// ImageURL returns the placeholder artwork of a tier.
func ImageURL(t Tier) string {
	return fmt.Sprintf("https://climate-nft-images.vercel.app/tier-%d.png", t)
}

// Generate builds the NFT for a donation observed at now. The id is
// "{projectId}-{donor}-{unixMillis}".
func Generate(in GenerateInput, now time.Time) VirtualNFT {
	projectID := "0"
	if in.ProjectID != nil {
		projectID = in.ProjectID.String()
	}
	amount := new(big.Int)
	if in.AmountWei != nil {
		amount.Set(in.AmountWei)
	}
	info := CalculateDonationTier(WeiToUnits(amount))
	ms := now.UnixMilli()
	return VirtualNFT{
		ID:             fmt.Sprintf("%s-%s-%d", projectID, in.Donor, ms),
		ProjectID:      projectID,
		ProjectTitle:   in.ProjectTitle,
		DonorAddress:   in.Donor,
		DonationAmount: amount.String(),
		Timestamp:      ms,
		Tier:           info.Tier,
		TierName:       info.Name,
		TierEmoji:      info.Emoji,
		Message:        strings.TrimSpace(in.Message),
		ImageURL:       ImageURL(info.Tier),
		TxHash:         strings.ToLower(in.TxHash),
		Contract:       in.Contract,
		Theme:          ParseTheme(in.Theme),
	}
}

// AmountWei parses DonationAmount. Malformed values read as zero.
func (n VirtualNFT) AmountWei() *big.Int {
	v, ok := new(big.Int).SetString(strings.TrimSpace(n.DonationAmount), 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

// Units returns the donation in display units.
func (n VirtualNFT) Units() *big.Int {
	return WeiToUnits(n.AmountWei())
}

// Stats summarizes a collection.
type Stats struct {
	Total             int    `json:"total"`
	Bronze            int    `json:"bronze"`
	Silver            int    `json:"silver"`
	Gold              int    `json:"gold"`
	Platinum          int    `json:"platinum"`
	TotalDonated      string `json:"totalDonated"`
	TotalDonatedUnits string `json:"totalDonatedDisplay"`
	ProjectsSupported int    `json:"projectsSupported"`
}

// ComputeStats counts tiers, sums donations and counts distinct projects.
func ComputeStats(nfts []VirtualNFT) Stats {
	st := Stats{Total: len(nfts)}
	total := new(big.Int)
	projects := make(map[string]struct{})
	for _, n := range nfts {
		switch n.Tier {
		case Platinum:
			st.Platinum++
		case Gold:
			st.Gold++
		case Silver:
			st.Silver++
		default:
			st.Bronze++
		}
		total.Add(total, n.AmountWei())
		projects[n.ProjectID] = struct{}{}
	}
	st.TotalDonated = total.String()
	st.TotalDonatedUnits = FormatTokenAmount(WeiToUnits(total))
	st.ProjectsSupported = len(projects)
	return st
}

// Attribute is one trait shown on a card.
type Attribute struct {
	Trait string `json:"trait"`
	Value string `json:"value"`
}

// Card is the display model of an NFT.
type Card struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Attributes  []Attribute `json:"attributes"`
	Rarity      string      `json:"rarity"`
	Color       string      `json:"color"`
}

var cardText = map[string]struct {
	title, thanks, tier, project, date, projectID, special, legendary string
}{
	LocaleEN: {
		title:     "%s Climate %s",
		thanks:    "Thank you for supporting \"%s\". Your contribution makes a difference for our planet!",
		tier:      "Tier",
		project:   "Project",
		date:      "Donation Date",
		projectID: "Project ID",
		special:   "Special",
		legendary: "Legendary Contributor",
	},
	LocaleZH: {
		title:     "%s 气候%s",
		thanks:    "感谢您支持「%s」。您的贡献正在改变我们的星球！",
		tier:      "等级",
		project:   "项目",
		date:      "捐款日期",
		projectID: "项目编号",
		special:   "特别",
		legendary: "传奇贡献者",
	},
}

// CardData renders the card of n in locale (en or zh, default en).
func CardData(n VirtualNFT, locale string) Card {
	text, ok := cardText[locale]
	if !ok {
		text = cardText[LocaleEN]
	}
	info := n.Tier.Info()
	attrs := []Attribute{
		{Trait: text.tier, Value: info.Name},
		{Trait: text.project, Value: n.ProjectTitle},
		{Trait: text.date, Value: time.UnixMilli(n.Timestamp).UTC().Format("2006-01-02")},
		{Trait: text.projectID, Value: "#" + n.ProjectID},
	}
	if info.Tier == Platinum {
		attrs = append(attrs, Attribute{Trait: text.special, Value: text.legendary})
	}
	return Card{
		Title:       fmt.Sprintf(text.title, info.Emoji, info.Name),
		Description: fmt.Sprintf(text.thanks, n.ProjectTitle),
		Attributes:  attrs,
		Rarity:      info.Rarity,
		Color:       info.Color,
	}
}
