package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		current, latest string
		available       bool
	}{
		{"0.1.0", "0.2.0", true},
		{"v0.2.0", "0.2.0", false},
		{"1.0.0", "0.9.9", false},
		{"1.0.0-rc.1", "1.0.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.current+"->"+tt.latest, func(t *testing.T) {
			st, err := Check(tt.current, tt.latest)
			require.NoError(t, err)
			assert.Equal(t, tt.available, st.Available)
		})
	}

	_, err := Check("banana", "1.0.0")
	assert.ErrorContains(t, err, "invalid version format")
	_, err = Check("1.0.0", "")
	assert.Error(t, err)
}

func TestGetDownloadURL(t *testing.T) {
	assert.Contains(t, GetDownloadURL("0.2.0"), "/v0.2.0/norm-")
}
