package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Version
		wantErr bool
	}{
		{input: "1.0.0", want: Version{1, 0, 0}},
		{input: "2.14.3", want: Version{2, 14, 3}},
		{input: "0.0.1", want: Version{0, 0, 1}},
		{input: "1.0", wantErr: true},
		{input: "1.0.0.0", wantErr: true},
		{input: "a.b.c", wantErr: true},
		{input: "1..0", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.input, v.String())
		})
	}
}

func TestCurrentParses(t *testing.T) {
	_, err := Parse(Current)
	assert.NoError(t, err)
}

func TestCompatible(t *testing.T) {
	assert.True(t, Version{1, 0, 0}.Compatible(Version{1, 9, 2}))
	assert.False(t, Version{1, 0, 0}.Compatible(Version{2, 0, 0}))
}

func TestLess(t *testing.T) {
	assert.True(t, Version{1, 0, 0}.Less(Version{1, 0, 1}))
	assert.True(t, Version{1, 9, 9}.Less(Version{2, 0, 0}))
	assert.False(t, Version{1, 1, 0}.Less(Version{1, 0, 9}))
	assert.False(t, Version{1, 0, 0}.Less(Version{1, 0, 0}))
}
