package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze_TimedFormat(t *testing.T) {
	text := `0:11 : Alice Smith : Good morning everyone
0:15 : Bob : Morning. Action item for me is the release notes.

1:02 : Alice Smith : Thanks Bob`

	stats := Analyze(text)

	assert.Equal(t, 3, stats.Lines)
	assert.Equal(t, []string{"Alice Smith", "Bob"}, stats.Speakers)
	assert.Equal(t, 1, stats.ActionItems)
	assert.Equal(t, 28, stats.Words)
}

func TestAnalyze_SpeakerColonFormat(t *testing.T) {
	text := "Alice: we need a follow-up\nBob: agreed\nAlice: TODO send notes\nunattributed line"

	stats := Analyze(text)

	assert.Equal(t, 4, stats.Lines)
	assert.Equal(t, []string{"Alice", "Bob"}, stats.Speakers)
	assert.Equal(t, 2, stats.ActionItems)
}

func TestAnalyze_Empty(t *testing.T) {
	stats := Analyze("")

	assert.Zero(t, stats.Lines)
	assert.Zero(t, stats.Words)
	assert.NotNil(t, stats.Speakers)
	assert.Empty(t, stats.Speakers)
}
