package cli

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"taskmanager/internal/models"
)

func TestCell(t *testing.T) {
	plain := lipgloss.NewStyle()
	assert.Equal(t, "ab  ", cell("ab", 4, plain))
	assert.Equal(t, "ab… ", cell("abcdef", 4, plain))
	assert.NotPanics(t, func() { cell("abcdef", 1, plain) })
	assert.NotPanics(t, func() { cell("abcdef", 0, plain) })
}

func TestRenderTasks(t *testing.T) {
	var buf bytes.Buffer
	renderTasks(&buf, nil)
	assert.Equal(t, "No tasks.\n", buf.String())

	buf.Reset()
	renderTasks(&buf, []models.Task{{ID: "0123456789abcdef", Title: "Pay rent", Priority: models.PriorityHigh}})
	assert.Contains(t, buf.String(), "01234567")
	assert.Contains(t, buf.String(), "Pay rent")
	assert.NotContains(t, buf.String(), "0123456789")
}
