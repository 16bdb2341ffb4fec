package agent

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ruteri/nfc-attendance/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleSource(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	source := NewConsoleSource(strings.NewReader("04aabbcc\n\n  \nbad tag\nexit\n04DDEEFF\n"), &out)

	tag, err := source.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, interfaces.TagID("04aabbcc"), tag)

	for i := 0; i < 2; i++ {
		tag, err = source.Next(ctx)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(tag.String(), "04"))
		assert.Len(t, tag.String(), 8)
	}

	// "bad tag" is skipped, then exit ends the source.
	_, err = source.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	assert.Contains(t, out.String(), "Ignoring input")
	assert.Contains(t, out.String(), "Simulated card 04")
	require.NoError(t, source.Close())
}

func TestConsoleSource_EndOfInput(t *testing.T) {
	source := NewConsoleSource(strings.NewReader("04AABBCC"), io.Discard)

	tag, err := source.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, interfaces.TagID("04AABBCC"), tag)

	_, err = source.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestConsoleSource_Cancelled(t *testing.T) {
	source := NewConsoleSource(blockingReader{}, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := source.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRandomTagID(t *testing.T) {
	seen := make(map[interfaces.TagID]bool)
	for i := 0; i < 8; i++ {
		tag, err := RandomTagID()
		require.NoError(t, err)
		assert.Regexp(t, `^04[0-9A-F]{6}$`, tag.String())
		seen[tag] = true
	}
	assert.Greater(t, len(seen), 1)
}
