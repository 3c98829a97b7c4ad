package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "great game tonight", Normalize("great game   tonight\n"))
	assert.Equal(t, "what a save", Normalize("RT @keeper_fan: what a save https://t.co/abc123"))
	assert.Equal(t, "Amazing win!!! #TeamA", Normalize("Amazing win!!! #TeamA https://example.com/x"))
	assert.Equal(t, `they said "unreal"`, Normalize("they said &quot;unreal&quot;"))
}

func TestForScoring(t *testing.T) {
	assert.Equal(t, "", ForScoring("   "))
	assert.Equal(t, "Amazing win!!! TeamA", ForScoring("Amazing win!!! #TeamA"))
	assert.Equal(t, "great game", ForScoring("great game @ref_official"))
	assert.Equal(t, "TSLA to the moon", ForScoring("$TSLA to the moon \U0001F680"))
}

func TestHashtags(t *testing.T) {
	assert.Nil(t, Hashtags("no tags here"))
	assert.Equal(t, []string{"teama"}, Hashtags("Amazing win!!! #TeamA"))
	// case-insensitive dedupe, first-seen order
	assert.Equal(t, []string{"teama", "derby"}, Hashtags("#TeamA #derby #TEAMA"))
}

func TestMentions(t *testing.T) {
	assert.Nil(t, Mentions(""))
	assert.Equal(t, []string{"coach", "keeper"}, Mentions("@coach and @keeper and @coach again"))
}
