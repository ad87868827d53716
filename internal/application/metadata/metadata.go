package metadata

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"cafe-backend/internal/domain"
)

const dataURIPrefix = "data:application/json,"

// Attribute is one trait_type/value pair in the token metadata, the shape
// NFT viewers expect.
type Attribute struct {
	TraitType   string      `json:"trait_type"`
	Value       interface{} `json:"value"`
	DisplayType string      `json:"display_type,omitempty"`
}

// TokenMetadata is the JSON document behind a tokenURI.
type TokenMetadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	ExternalURL string      `json:"external_url,omitempty"`
	Attributes  []Attribute `json:"attributes"`
}

// BuildTokenURI renders a data-URI with percent-encoded JSON for a lot.
// Used when mint is called without an explicit (e.g. IPFS) tokenURI, so a
// token is never minted with unresolvable metadata.
func BuildTokenURI(in domain.CoffeeLot, imageURL string) (string, error) {
	meta := TokenMetadata{
		Name:        fmt.Sprintf("Coffee Lot %s", in.LotCode),
		Description: fmt.Sprintf("Tokenized specialty coffee microlot %s, %d kg, SCA %.2f.", in.LotCode, in.WeightKg, float64(in.ScaScore)/100),
		Image:       imageURL,
		Attributes: []Attribute{
			{TraitType: "Lot Code", Value: in.LotCode},
			{TraitType: "Weight (kg)", Value: in.WeightKg, DisplayType: "number"},
			{TraitType: "SCA Score", Value: float64(in.ScaScore) / 100, DisplayType: "number"},
			{TraitType: "Harvest", Value: in.HarvestTimestamp, DisplayType: "date"},
			{TraitType: "Producer", Value: in.Producer},
		},
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + url.PathEscape(string(b)), nil
}

// Decode parses a data-URI produced by BuildTokenURI. Non-data URIs (ipfs://
// and friends) are the off-chain store's problem and return an error here.
func Decode(tokenURI string) (*TokenMetadata, error) {
	if !strings.HasPrefix(tokenURI, dataURIPrefix) {
		return nil, fmt.Errorf("not a data URI")
	}
	raw, err := url.PathUnescape(strings.TrimPrefix(tokenURI, dataURIPrefix))
	if err != nil {
		return nil, err
	}
	var meta TokenMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
