package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lodestar/utils"
)

func TestFormatMangaID(t *testing.T) {
	assert.Equal(t, "mgd:abc-123", utils.FormatMangaID("mgd", "abc-123"))
}

func TestParseMangaID(t *testing.T) {
	provider, manga, err := utils.ParseMangaID("mgd:abc-123")
	require.NoError(t, err)
	assert.Equal(t, "mgd", provider)
	assert.Equal(t, "abc-123", manga)
}

func TestParseMangaIDKeepsColonsInID(t *testing.T) {
	provider, manga, err := utils.ParseMangaID("mgd:a:b:c")
	require.NoError(t, err)
	assert.Equal(t, "mgd", provider)
	assert.Equal(t, "a:b:c", manga)
}

func TestParseMangaIDRejectsBareID(t *testing.T) {
	_, _, err := utils.ParseMangaID("abc-123")
	assert.Error(t, err)
}
