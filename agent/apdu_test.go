package agent

import (
	"testing"

	"github.com/ruteri/nfc-attendance/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUIDResponse(t *testing.T) {
	tests := []struct {
		name    string
		rsp     []byte
		want    interfaces.TagID
		wantErr bool
	}{
		{
			name: "four byte uid",
			rsp:  []byte{0x04, 0xa1, 0xb2, 0xc3, 0x90, 0x00},
			want: "04A1B2C3",
		},
		{
			name: "seven byte uid",
			rsp:  []byte{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x90, 0x00},
			want: "04112233445566",
		},
		{
			name:    "command not supported",
			rsp:     []byte{0x6a, 0x81},
			wantErr: true,
		},
		{
			name:    "status only",
			rsp:     []byte{0x90, 0x00},
			wantErr: true,
		},
		{
			name:    "truncated",
			rsp:     []byte{0x90},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := parseUIDResponse(tt.rsp)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrReaderStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tag)
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "captured", OutcomeCaptured.String())
	assert.Equal(t, "forwarded", OutcomeForwarded.String())
	assert.Equal(t, "dropped", OutcomeDropped.String())
}
