package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

func TestNormalizedNameKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Bar do João Ltda", "do joão"},
		{"bar do joão", "do joão"},
		{"PIZZARIA  BELLA!!!", "pizzaria bella"},
		{"Oficina S.A.", ""},
		{"Café & Cia", "café cia"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizedNameKey(c.in), "input %q", c.in)
	}
}

func TestDeduplicateKeepsFirst(t *testing.T) {
	list := []model.Business{
		{Name: "Bar do João Ltda", CompositeScore: 12},
		{Name: "bar do joão", CompositeScore: 8},
		{Name: "Pizzaria Bella", CompositeScore: 5},
	}
	out := Deduplicate(list, func(b model.Business) string {
		return NormalizedNameKey(b.Name)
	})
	assert.Len(t, out, 2)
	assert.Equal(t, "Bar do João Ltda", out[0].Name)
	assert.Equal(t, "Pizzaria Bella", out[1].Name)
}

func TestDeduplicateEmptyKeyNeverCollapses(t *testing.T) {
	// two distinct businesses whose names normalize away entirely
	list := []model.Business{
		{Name: "Bar"},
		{Name: "Oficina"},
	}
	out := Deduplicate(list, func(b model.Business) string {
		return NormalizedNameKey(b.Name)
	})
	assert.Len(t, out, 2)
}

func TestNameAddressKey(t *testing.T) {
	a := model.Business{Name: "Padaria Sol", Address: "Rua A, 1"}
	b := model.Business{Name: "PADARIA SOL", Address: "rua a, 1"}
	assert.Equal(t, NameAddressKey(a), NameAddressKey(b))
}
