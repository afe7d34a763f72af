package template

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParse(t *testing.T) {
	out, err := Parse("{{range .}}- {{.}}\n{{end}}", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "- a\n- b\n", out)

	// second call is served from the cache
	out, err = Parse("{{range .}}- {{.}}\n{{end}}", []string{"c"})
	require.NoError(t, err)
	assert.Equal(t, "- c\n", out)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("{{.Missing", nil)
	assert.Error(t, err)
}
