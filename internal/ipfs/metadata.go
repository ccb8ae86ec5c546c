package ipfs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"climatefund/internal/nft"
)

// ErrInvalidMetadata is returned when metadata misses required fields.
var ErrInvalidMetadata = errors.New("ipfs: invalid metadata")

// Attribute is an ERC-721 metadata trait. Value is a string or a number.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// Metadata is the ERC-721 metadata document pinned for an NFT.
type Metadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// NewMetadata builds the document of one NFT in locale.
func NewMetadata(tokenID string, tier nft.Tier, theme nft.Theme, locale string, now time.Time) Metadata {
	theme = nft.ParseTheme(string(theme))
	return Metadata{
		Name:        fmt.Sprintf("Climate NFT #%s", tokenID),
		Description: theme.Description(locale),
		Image:       theme.Image(),
		Attributes: []Attribute{
			{TraitType: "Donation Tier", Value: tier.Info().Name},
			{TraitType: "Climate Theme", Value: theme.Name(locale)},
			{TraitType: "Token ID", Value: tokenID},
			{TraitType: "Created At", Value: now.UTC().Format(time.RFC3339)},
		},
	}
}

// FromNFT builds the document of a recorded virtual NFT.
func FromNFT(n nft.VirtualNFT, locale string) Metadata {
	return NewMetadata(n.ID, n.Tier, n.Theme, locale, time.UnixMilli(n.Timestamp))
}

// Attribute returns the value of the named trait as a string.
func (m Metadata) Attribute(trait string) string {
	for _, a := range m.Attributes {
		if a.TraitType == trait {
			return fmt.Sprint(a.Value)
		}
	}
	return ""
}

// Validate checks the required fields and that every attribute value is a
// string or a number.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMetadata)
	}
	if m.Attributes == nil {
		return fmt.Errorf("%w: attributes are required", ErrInvalidMetadata)
	}
	for i, a := range m.Attributes {
		if a.TraitType == "" {
			return fmt.Errorf("%w: attribute %d has no trait_type", ErrInvalidMetadata, i)
		}
		switch a.Value.(type) {
		case string, float64, json.Number, int, int64, uint64:
		default:
			return fmt.Errorf("%w: attribute %q has value of type %T", ErrInvalidMetadata, a.TraitType, a.Value)
		}
	}
	return nil
}

// ParseMetadata decodes and validates a metadata document.
func ParseMetadata(raw []byte) (Metadata, error) {
	var doc struct {
		Name        *string     `json:"name"`
		Description *string     `json:"description"`
		Image       *string     `json:"image"`
		Attributes  []Attribute `json:"attributes"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if doc.Name == nil || doc.Description == nil || doc.Image == nil {
		return Metadata{}, fmt.Errorf("%w: name, description and image are required", ErrInvalidMetadata)
	}
	m := Metadata{Name: *doc.Name, Description: *doc.Description, Image: *doc.Image, Attributes: doc.Attributes}
	if err := m.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}
