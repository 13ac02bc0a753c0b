package lexicon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIntentOrder(t *testing.T) {
	lx := Default()
	require.NoError(t, lx.Validate())

	names := make([]string, 0, len(lx.Intents))
	for _, in := range lx.Intents {
		names = append(names, in.Name)
	}
	assert.Equal(t, []string{IntentPrice, IntentIntroduction, IntentTimeline, IntentBooking, IntentContact}, names)
}

func TestIsAffirmative(t *testing.T) {
	lx := Default()
	assert.True(t, lx.IsAffirmative("yes"))
	assert.True(t, lx.IsAffirmative("  Sure! "))
	assert.True(t, lx.IsAffirmative("OK"))
	assert.False(t, lx.IsAffirmative("yes but how much"))
	assert.False(t, lx.IsAffirmative(""))
}

func TestMarkers(t *testing.T) {
	lx := Default()
	assert.True(t, lx.HasEnthusiasm("I'm really Interested in veneers"))
	assert.False(t, lx.HasEnthusiasm("what are veneers"))
	assert.True(t, lx.HasContactKeyword("call me at 555"))
	assert.False(t, lx.HasContactKeyword("order 12345"))
	assert.True(t, lx.IsStopword("the"))
	assert.False(t, lx.IsStopword("veneers"))
}

func TestParseOverridesOnlyGivenFields(t *testing.T) {
	lx, err := Parse([]byte(`
version: custom-1
stopwords: [foo, bar]
min_token_length: 4
`))
	require.NoError(t, err)
	assert.Equal(t, "custom-1", lx.Version)
	assert.True(t, lx.IsStopword("foo"))
	assert.False(t, lx.IsStopword("the"))
	assert.Equal(t, 4, lx.MinTokenLength)
	assert.Equal(t, 0.8, lx.TokenSimilarity)
	assert.Len(t, lx.Intents, 5)
}

func TestParseRejectsUnknownIntent(t *testing.T) {
	_, err := Parse([]byte(`
intents:
  - name: weather
    keywords: [rain]
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownIntent))
}

func TestParseRejectsBadThreshold(t *testing.T) {
	_, err := Parse([]byte("token_similarity: 1.5\n"))
	assert.ErrorIs(t, err, ErrBadThreshold)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("affirmatives: [aye]\n"), 0o600))

	lx, err := Load(path)
	require.NoError(t, err)
	assert.True(t, lx.IsAffirmative("aye"))
	assert.False(t, lx.IsAffirmative("yes"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
