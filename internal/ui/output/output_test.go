package output_test

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/twoliter/internal/ui/output"
)

func TestColorProfile(t *testing.T) {
	var buf bytes.Buffer

	t.Setenv("NO_COLOR", "1")
	t.Setenv("CLICOLOR_FORCE", "1")
	assert.Equal(t, termenv.Ascii, output.ColorProfile(&buf), "NO_COLOR wins over CLICOLOR_FORCE")

	t.Setenv("NO_COLOR", "")
	assert.Equal(t, termenv.ANSI, output.ColorProfile(&buf))

	t.Setenv("CLICOLOR_FORCE", "")
	assert.Equal(t, termenv.Ascii, output.ColorProfile(&buf), "buffers are not terminals")
}

func TestNew(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	out := output.New(&buf)
	_, _ = out.WriteString(out.String("plain").Foreground(termenv.ANSIRed).String())
	assert.Equal(t, "plain", buf.String())

	assert.NotNil(t, output.New(nil))
}
