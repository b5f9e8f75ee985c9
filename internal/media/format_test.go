package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormatRegistryKeepsOrder(t *testing.T) {
	registry, err := NewFormatRegistry(
		Format{Name: "small", Width: 100, Height: 70},
		Format{Name: "big", Width: 500, Height: 300, Constrain: true},
		Format{Name: "admin", Width: 50, Height: 50},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"small", "big", "admin"}, registry.Names())
	assert.Equal(t, 3, registry.Len())

	big, ok := registry.Get("big")
	require.True(t, ok)
	assert.Equal(t, Format{Name: "big", Width: 500, Height: 300, Constrain: true}, big)

	_, ok = registry.Get(ReferenceFormat)
	assert.False(t, ok)
}

func TestNewFormatRegistryRejects(t *testing.T) {
	cases := map[string][]Format{
		"empty":     {{Name: " ", Width: 1, Height: 1}},
		"reserved":  {{Name: ReferenceFormat, Width: 1, Height: 1}},
		"zeroWidth": {{Name: "a", Width: 0, Height: 1}},
		"negative":  {{Name: "a", Width: 1, Height: -1}},
		"duplicate": {{Name: "a", Width: 1, Height: 1}, {Name: "a", Width: 2, Height: 2}},
	}

	for name, formats := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewFormatRegistry(formats...)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestParseFormats(t *testing.T) {
	registry, err := ParseFormats("big:200x100:constrain, small:100X70 ,,thumb:64x64:free")
	require.NoError(t, err)

	assert.Equal(t, []Format{
		{Name: "big", Width: 200, Height: 100, Constrain: true},
		{Name: "small", Width: 100, Height: 70},
		{Name: "thumb", Width: 64, Height: 64},
	}, registry.All())

	empty, err := ParseFormats("")
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}

func TestParseFormatsErrors(t *testing.T) {
	for _, value := range []string{"big", "big:200", "big:axb", "big:200x100:sideways", "big:1x1:a:b", "reference:1x1"} {
		_, err := ParseFormats(value)
		assert.ErrorIs(t, err, ErrInvalidFormat, value)
	}
}
