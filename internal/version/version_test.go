package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "dev (commit unknown, built unknown)", String())

	oldVersion, oldSHA := Version, GitSHA
	t.Cleanup(func() { Version, GitSHA = oldVersion, oldSHA })
	Version, GitSHA = "1.2.0", "abc123"
	assert.Contains(t, String(), "1.2.0 (commit abc123")
}
