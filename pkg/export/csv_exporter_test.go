package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Day", "Start", "Subject"},
		Rows: []map[string]string{
			{"Day": "MONDAY", "Start": "09:00", "Subject": "Mathematics"},
			{"Day": "TUESDAY", "Start": "10:00"},
		},
	}

	content, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	out := string(content)
	assert.True(t, strings.HasSuffix(out, "\r\n"))

	lines := strings.Split(strings.TrimSpace(out), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Start,Subject", lines[0])
	assert.Equal(t, "MONDAY,09:00,Mathematics", lines[1])
	assert.Equal(t, "TUESDAY,10:00,", lines[2])
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}
