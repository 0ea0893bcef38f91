package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "free wifi", Normalize("  Free   WiFi "))
	assert.Equal(t, "wifi", Normalize("ＷｉＦｉ"))
	assert.Equal(t, "", Normalize("   "))
}

func TestAmenitySet_Match(t *testing.T) {
	set := NewAmenitySet([]string{"Swimming Pool", "", "Free WiFi"})

	match, ok := set.Match("POOL")
	assert.True(t, ok)
	assert.Equal(t, "Swimming Pool", match)

	match, ok = set.Match("wifi")
	assert.True(t, ok)
	assert.Equal(t, "Free WiFi", match)

	_, ok = set.Match("gym")
	assert.False(t, ok)

	_, ok = set.Match(" ")
	assert.False(t, ok)
}
