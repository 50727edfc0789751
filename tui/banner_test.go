package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteBanner(t *testing.T) {
	var buf bytes.Buffer
	writeBanner(&buf, 90, 30)

	assert.True(t, strings.HasSuffix(buf.String(), "\n\n"), "banner ends with a blank line")
	assert.Equal(t, RenderBanner(90, 30), strings.TrimSuffix(buf.String(), "\n\n"))
}

func TestNormalizeBannerSize(t *testing.T) {
	t.Run("keeps detected terminal size", func(t *testing.T) {
		width, height := normalizeBannerSize(120, 40, nil)
		assert.Equal(t, 120, width)
		assert.Equal(t, 40, height)
	})

	t.Run("piped stdout falls back to the default width", func(t *testing.T) {
		width, height := normalizeBannerSize(0, 0, errors.New("inappropriate ioctl for device"))
		assert.Equal(t, defaultBannerWidth, width)
		assert.Equal(t, 0, height, "zero height skips the compact layout")
	})

	t.Run("a reported size of zero is treated as undetected", func(t *testing.T) {
		width, _ := normalizeBannerSize(0, 24, nil)
		assert.Equal(t, defaultBannerWidth, width)
	})
}
