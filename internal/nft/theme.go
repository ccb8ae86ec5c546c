package nft

import "strings"

// Theme is a climate theme that selects NFT artwork and copy.
type Theme string

const (
	ThemeForest    Theme = "FOREST"
	ThemeOcean     Theme = "OCEAN"
	ThemeRenewable Theme = "RENEWABLE"
	ThemeCarbon    Theme = "CARBON"
)

// Locale values understood by the NFT copy.
const (
	LocaleEN = "en"
	LocaleZH = "zh"
)

type themeCopy struct {
	Name        string
	Description string
}

type themeData struct {
	Image string
	Copy  map[string]themeCopy
}

var themes = map[Theme]themeData{
	ThemeForest: {
		Image: "https://images.unsplash.com/photo-1441974231531-c6227db76b6e?w=500&h=500&fit=crop",
		Copy: map[string]themeCopy{
			LocaleEN: {"Forest Protection", "Thank you for supporting forest protection! This NFT certifies your contribution to the world's forest ecosystems."},
			LocaleZH: {"森林保护", "感谢您对森林保护的支持！这个NFT证明了您为保护全球森林生态系统做出的贡献。"},
		},
	},
	ThemeOcean: {
		Image: "https://images.unsplash.com/photo-1583212292454-1fe6229603b7?w=500&h=500&fit=crop",
		Copy: map[string]themeCopy{
			LocaleEN: {"Ocean Protection", "Thank you for supporting ocean protection! This NFT certifies your contribution to marine ecosystems."},
			LocaleZH: {"海洋保护", "感谢您对海洋保护的支持！这个NFT证明了您为保护海洋生态系统做出的贡献。"},
		},
	},
	ThemeRenewable: {
		Image: "https://images.unsplash.com/photo-1509391366360-2e959784a276?w=500&h=500&fit=crop",
		Copy: map[string]themeCopy{
			LocaleEN: {"Renewable Energy", "Thank you for supporting renewable energy! This NFT certifies your contribution to clean energy."},
			LocaleZH: {"可再生能源", "感谢您对可再生能源的支持！这个NFT证明了您为推动清洁能源发展做出的贡献。"},
		},
	},
	ThemeCarbon: {
		Image: "https://images.unsplash.com/photo-1497436072909-f5e4be1dfeaf?w=500&h=500&fit=crop",
		Copy: map[string]themeCopy{
			LocaleEN: {"Carbon Neutrality", "Thank you for supporting carbon neutrality! This NFT certifies your contribution to fighting climate change."},
			LocaleZH: {"碳中和", "感谢您对碳中和的支持！这个NFT证明了您为应对气候变化做出的贡献。"},
		},
	},
}

// ParseTheme normalizes a theme name. Unknown or empty names yield
// ThemeForest.
func ParseTheme(s string) Theme {
	t := Theme(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := themes[t]; ok {
		return t
	}
	return ThemeForest
}

// Name returns the localized theme name.
func (t Theme) Name(locale string) string {
	return t.localized(locale).Name
}

// Description returns the localized thank-you text.
func (t Theme) Description(locale string) string {
	return t.localized(locale).Description
}

// Image returns the artwork URL for the theme.
func (t Theme) Image() string {
	return themes[ParseTheme(string(t))].Image
}

func (t Theme) localized(locale string) themeCopy {
	data := themes[ParseTheme(string(t))]
	if c, ok := data.Copy[locale]; ok {
		return c
	}
	return data.Copy[LocaleEN]
}
