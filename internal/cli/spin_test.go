package cli_test

import (
	"strings"
	"testing"

	"obex-browser/internal/cli"

	"github.com/stretchr/testify/assert"
)

func TestSpinWithoutTTY(t *testing.T) {
	out := &strings.Builder{}

	stop := cli.Spin("Scanning...", false, out)
	stop()

	assert.Equal(t, "Scanning...\n", out.String())
}
