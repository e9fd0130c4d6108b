package debug

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWriterLevels(t *testing.T) {
	t.Cleanup(func() { Init(false) })

	var buf bytes.Buffer
	InitWriter(&buf, false)
	assert.False(t, Enabled())
	Debug("hidden")
	Warn("shown", "table", "Customers")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "table=Customers")

	buf.Reset()
	InitWriter(&buf, true)
	assert.True(t, Enabled())
	With("component", "registry").Debug("registered")
	assert.Contains(t, buf.String(), "component=registry")
	assert.Contains(t, buf.String(), "msg=registered")
}
