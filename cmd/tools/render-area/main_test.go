package main

import (
	"testing"

	"github.com/annel0/voxel-map/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTile(t *testing.T) {
	got, err := parseTile(" -3, 7")
	require.NoError(t, err)
	assert.Equal(t, vec.Vec2{X: -3, Y: 7}, got)

	for _, bad := range []string{"", "1", "a,1", "1,b"} {
		_, err := parseTile(bad)
		assert.Error(t, err, bad)
	}
}

func TestTileRange(t *testing.T) {
	coords := tileRange(vec.Vec2{X: 1, Y: 1}, vec.Vec2{X: 0, Y: 0})
	assert.Equal(t, []vec.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}, coords)
}
