package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTXT(t *testing.T) {
	info := &Info{
		InstanceName: "bench-controller",
		Port:         7776,
		DeviceID:     "a1b2c3",
		Version:      "1.2.0",
		GroupCount:   3,
	}

	txt := BuildTXT(info)
	assert.Contains(t, txt, "id=a1b2c3")
	assert.Contains(t, txt, "groups=3")
	assert.Contains(t, txt, "ver=1.2.0")
}

func TestBuildTXTOmitsEmptyVersion(t *testing.T) {
	txt := BuildTXT(&Info{DeviceID: "a1b2c3", GroupCount: 1})
	assert.NotContains(t, txt, "ver=")
	assert.Len(t, txt, 2)
}

func TestParseTXTRoundTrip(t *testing.T) {
	orig := &Info{
		DeviceID:   "dev-42",
		Version:    "0.9.1",
		GroupCount: 5,
	}

	parsed, err := ParseTXT(BuildTXT(orig))
	require.NoError(t, err)
	assert.Equal(t, orig, parsed)
}

func TestParseTXTErrors(t *testing.T) {
	tests := []struct {
		name    string
		records []string
		wantErr error
	}{
		{
			name:    "missing device id",
			records: []string{"groups=2"},
			wantErr: ErrMissingRequired,
		},
		{
			name:    "missing groups",
			records: []string{"id=dev"},
			wantErr: ErrMissingRequired,
		},
		{
			name:    "bad group count",
			records: []string{"id=dev", "groups=many"},
			wantErr: ErrInvalidGroupCount,
		},
		{
			name:    "negative group count",
			records: []string{"id=dev", "groups=-1"},
			wantErr: ErrInvalidGroupCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTXT(tt.records)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseTXTIgnoresMalformedRecords(t *testing.T) {
	parsed, err := ParseTXT([]string{"id=dev", "groups=2", "noequals"})
	require.NoError(t, err)
	assert.Equal(t, "dev", parsed.DeviceID)
}
