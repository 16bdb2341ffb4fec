package interfaces

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTagID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    TagID
		wantErr bool
	}{
		{name: "plain uid", raw: "04A1B2C3", want: "04A1B2C3"},
		{name: "trimmed", raw: "  04A1B2C3\n", want: "04A1B2C3"},
		{name: "empty", raw: "", wantErr: true},
		{name: "only whitespace", raw: " \t ", wantErr: true},
		{name: "inner whitespace", raw: "04 A1", wantErr: true},
		{name: "control character", raw: "04\x00A1", wantErr: true},
		{name: "too long", raw: string(make([]byte, 129)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTagID(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTagID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTagIDFromUID(t *testing.T) {
	assert.Equal(t, TagID("04A1FF"), TagIDFromUID([]byte{0x04, 0xa1, 0xff}))
}

func TestUnixSeconds(t *testing.T) {
	ts := time.Unix(1700000000, 500_000_000)
	assert.InDelta(t, 1700000000.5, UnixSeconds(ts), 1e-6)
}
