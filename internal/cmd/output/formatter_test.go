package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia/internal/cmd/table"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

func sampleBoard() []competitions.LeaderboardEntry {
	return []competitions.LeaderboardEntry{
		{Rank: 1, UserID: "u10", UserName: "Dr. Mensah", BestScore: 0.9523, SubmissionsCount: 3},
		{Rank: 2, UserID: "u11", UserName: "Aminata Diallo", BestScore: 0.9, SubmissionsCount: 1},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", "", false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"md", FormatMarkdown, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	entries := sampleBoard()
	require.NoError(t, Write(&buf, FormatTable, table.LeaderboardToTableData(entries), entries))

	out := buf.String()
	assert.Contains(t, out, "Dr. Mensah")
	assert.Contains(t, out, "0.9523")
	assert.Contains(t, out, "0.9")
}

func TestWriteJSONAndYAML(t *testing.T) {
	entries := sampleBoard()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, table.LeaderboardToTableData(entries), entries))
	assert.Contains(t, buf.String(), `"user_name": "Aminata Diallo"`)

	buf.Reset()
	require.NoError(t, Write(&buf, FormatYAML, table.LeaderboardToTableData(entries), entries))
	assert.Contains(t, buf.String(), "user_name: Aminata Diallo")
}

func TestWriteMarkdown(t *testing.T) {
	entries := sampleBoard()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatMarkdown, table.LeaderboardToTableData(entries), entries))
	out := buf.String()
	assert.Contains(t, out, "Dr. Mensah")
	assert.Contains(t, out, "|")
	assert.NotContains(t, out, "user_name", "markdown renders rows, not the raw value")
}

func TestTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, map[string]int{"events": 6}))
	assert.JSONEq(t, `{"events": 6}`, buf.String())
}
