package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

func TestZoomLevelsForRadius(t *testing.T) {
	cases := []struct {
		radius float64
		want   []int
	}{
		{2, []int{15}},
		{5, []int{15, 14}},
		{10, []int{15, 14, 13}},
		{20, []int{15, 14, 13, 12}},
		{50, []int{15, 14, 13, 12, 11}},
		{100, []int{15, 14, 13, 12, 11, 10}},
		{0, []int{15, 14, 13}},
		{7, []int{15, 14, 13}},
		{20.5, []int{15, 14, 13}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ZoomLevelsForRadius(c.radius), "radius=%v", c.radius)
	}
}

func TestZoomLevelsReturnsCopy(t *testing.T) {
	a := ZoomLevelsForRadius(20)
	a[0] = 99
	assert.Equal(t, []int{15, 14, 13, 12}, ZoomLevelsForRadius(20))
}

func TestResolveLocations(t *testing.T) {
	locs := ResolveLocations(model.SearchOptions{})
	require.Len(t, locs, 1)
	assert.Nil(t, locs[0].Coord)

	locs = ResolveLocations(model.SearchOptions{Coordinates: []model.Coordinate{
		{Label: "Centro", Lat: -22.9, Lng: -43.2},
		{Lat: -23.5505, Lng: -46.6333},
	}})
	require.Len(t, locs, 2)
	assert.Equal(t, "Centro", locs[0].Name)
	assert.Equal(t, "-23.5505,-46.6333", locs[1].Name)
	require.NotNil(t, locs[1].Coord)
	assert.Equal(t, -23.5505, locs[1].Coord.Lat)
}

func TestCellCount(t *testing.T) {
	assert.Equal(t, 1, CellCount(model.SearchOptions{}))
	assert.Equal(t, 8, CellCount(model.SearchOptions{
		SearchRadius: 20,
		Coordinates: []model.Coordinate{
			{Lat: -22.9, Lng: -43.2},
			{Lat: -23.55, Lng: -46.63},
		},
	}))
}
