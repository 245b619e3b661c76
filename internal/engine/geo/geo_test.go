package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(-23.5505, -46.6333))
	assert.True(t, ValidCoordinate(90, 180))
	assert.False(t, ValidCoordinate(91, 0))
	assert.False(t, ValidCoordinate(0, -181))
	assert.False(t, ValidCoordinate(math.NaN(), 0))
	assert.False(t, ValidCoordinate(0, math.Inf(1)))
}

func TestHasPoint(t *testing.T) {
	assert.True(t, HasPoint(-23.5505, -46.6333))
	assert.False(t, HasPoint(0, 0))
	assert.False(t, HasPoint(91, 0))
}

func TestDistanceKm(t *testing.T) {
	// Sao Paulo center to Rio de Janeiro center, roughly 360km
	d := DistanceKm(-23.5505, -46.6333, -22.9068, -43.1729)
	assert.InDelta(t, 360, d, 15)

	assert.Equal(t, 0.0, DistanceKm(-23.5505, -46.6333, -23.5505, -46.6333))
	assert.Equal(t, 0.0, DistanceKm(999, 0, -22.9, -43.1))
}

func TestFilterByRadius(t *testing.T) {
	list := []model.Business{
		{Name: "Perto", Lat: -23.551, Lng: -46.634},
		{Name: "Longe", Lat: -22.9068, Lng: -43.1729},
		{Name: "Sem Coordenada"},
	}

	got := FilterByRadius(list, -23.5505, -46.6333, 5)
	names := make([]string, 0, len(got))
	for _, b := range got {
		names = append(names, b.Name)
	}
	assert.ElementsMatch(t, []string{"Perto", "Sem Coordenada"}, names)

	// zero radius disables filtering
	assert.Len(t, FilterByRadius(list, -23.5505, -46.6333, 0), 3)
}
