package visibility_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge-admin/gitforge-admin/internal/visibility"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    visibility.Level
		wantErr bool
	}{
		{in: "0", want: visibility.Private},
		{in: "10", want: visibility.Internal},
		{in: "20", want: visibility.Public},
		{in: "public", want: visibility.Public},
		{in: " Internal ", want: visibility.Internal},
		{in: "5", wantErr: true},
		{in: "secret", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := visibility.Parse(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, visibility.ErrUnknownLevel)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLevelNames(t *testing.T) {
	assert.Equal(t, "private", visibility.Private.String())
	assert.Equal(t, "Public", visibility.Public.Title())
	assert.Equal(t, "unknown(3)", visibility.Level(3).String())
	assert.False(t, visibility.Level(3).Valid())
}
