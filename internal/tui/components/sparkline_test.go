package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestSparklineKeepsLastWidthSamples(t *testing.T) {
	s := NewSparkline(3, "Ops", "/s", lipgloss.NewStyle())
	for _, v := range []float64{1, 2, 3, 4, -5} {
		s.Add(v)
	}
	assert.Equal(t, []float64{3, 4, 0}, s.Data)
	assert.Equal(t, 4.0, s.Max)
	assert.Equal(t, 0.0, s.Last())
}

func TestSparklineView(t *testing.T) {
	s := NewSparkline(4, "Latency", "ms", lipgloss.NewStyle())
	s.Add(10)
	s.Add(5)

	lines := strings.Split(s.View(), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Latency  5.0 ms")
	assert.Equal(t, "█▄", strings.TrimRight(lines[1], " "))

	assert.Empty(t, NewSparkline(0, "x", "", lipgloss.NewStyle()).View())
}
