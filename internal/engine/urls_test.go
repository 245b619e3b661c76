package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

func TestSearchURLWithCoordinate(t *testing.T) {
	coord := &model.Coordinate{Lat: -22.9068, Lng: -43.1729}
	u := SearchURL("pizza artesanal", coord, 14)

	assert.Equal(t, "https://www.google.com/maps/@-22.9068,-43.1729,14z/search/pizza%20artesanal", u)
	// the term must be escaped exactly once
	assert.Equal(t, 1, strings.Count(u, "%20"))
	assert.NotContains(t, u, "%25")
}

func TestSearchURLWithoutCoordinate(t *testing.T) {
	u := SearchURL("café & bolo", nil, 0)
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=caf%C3%A9+%26+bolo", u)
}
