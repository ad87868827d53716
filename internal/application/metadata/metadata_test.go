package metadata

import (
	"strings"
	"testing"

	"cafe-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTokenURI_RoundTrip(t *testing.T) {
	lot := domain.CoffeeLot{
		TokenID:          1,
		LotCode:          "BR-MG-2024-001",
		Producer:         "0xbbbb00000000000000000000000000000000bbbb",
		WeightKg:         300,
		ScaScore:         8650,
		HarvestTimestamp: 1717200000,
	}

	uri, err := BuildTokenURI(lot, "ipfs://QmImage")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:application/json,"))

	meta, err := Decode(uri)
	require.NoError(t, err)
	assert.Equal(t, "Coffee Lot BR-MG-2024-001", meta.Name)
	assert.Equal(t, "ipfs://QmImage", meta.Image)
	assert.Contains(t, meta.Description, "86.50")

	byTrait := map[string]interface{}{}
	for _, a := range meta.Attributes {
		byTrait[a.TraitType] = a.Value
	}
	assert.Equal(t, "BR-MG-2024-001", byTrait["Lot Code"])
	assert.Equal(t, 86.5, byTrait["SCA Score"])
}

func TestDecode_RejectsNonDataURI(t *testing.T) {
	_, err := Decode("ipfs://QmTest123")
	assert.Error(t, err)
}
