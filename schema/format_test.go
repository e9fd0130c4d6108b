package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCanonical(t *testing.T) {
	s, err := ParseString("in.norm", `entity Customer table Customers connection main softdelete {
Id int32 pk identity
  Name    string(50)
DeletedFlag int32 softdelete(1)
}`)
	require.NoError(t, err)

	want := `entity Customer table Customers connection main softdelete {
  Id          int32      pk identity
  Name        string(50)
  DeletedFlag int32      softdelete(1)
}
`
	assert.Equal(t, want, Format(s))
}

func TestFormatRoundTrip(t *testing.T) {
	s, err := ParseString("in.norm", customers+`
entity Audit softdelete {
  Id      guid pk
  Removed datetime softdelete("2024-01-02T03:04:05Z")
}
`)
	require.NoError(t, err)

	again, err := ParseString("out.norm", Format(s))
	require.NoError(t, err)
	assert.Equal(t, s.Descriptors(), again.Descriptors())
	for i, e := range s.Entities {
		assert.Equal(t, e.Nullable, again.Entities[i].Nullable)
	}
	assert.Equal(t, Format(s), Format(again))
}
