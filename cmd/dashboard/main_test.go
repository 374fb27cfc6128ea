package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathclass/rating-hub/internal/application/dashboard"
	"github.com/mathclass/rating-hub/internal/application/roster"
	"github.com/mathclass/rating-hub/internal/domain/rating"
)

func TestPositionLabel(t *testing.T) {
	tests := []struct {
		position int
		want     string
	}{
		{1, "🥇"},
		{2, "🥈"},
		{3, "🥉"},
		{4, "4"},
		{12, "12"},
	}
	for _, tt := range tests {
		s := roster.Standing{Position: tt.position, Medal: rating.Medal(tt.position)}
		assert.Equal(t, tt.want, positionLabel(s))
	}
}

func TestPrintStandings(t *testing.T) {
	var buf bytes.Buffer
	printStandings(&buf, dashboard.New(dashboard.Options{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[1], "🥇"))
	assert.True(t, strings.HasPrefix(lines[4], "4 "))
	assert.Contains(t, lines[4], "Вика")
	assert.NotContains(t, buf.String(), "🎯")
}
