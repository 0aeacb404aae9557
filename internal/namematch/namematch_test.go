package namematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/auraflow/internal/toolerr"
)

type item struct{ id, title string }

func titleOf(i item) string { return i.title }

func TestFind(t *testing.T) {
	items := []item{
		{"1", "Dentist appointment"},
		{"2", "Team standup"},
		{"3", "Standup"},
		{"4", "Standup retro"},
		{"5", "Lunch with Sam"},
		{"6", "lunch with Alex"},
	}

	tests := []struct {
		name     string
		query    string
		wantID   string
		wantKind toolerr.Kind
	}{
		{"substring unique", "dentist", "1", 0},
		{"case insensitive", "LUNCH WITH SAM", "5", 0},
		{"exact wins among several", "standup", "3", 0},
		{"ambiguous without exact", "lunch", "", toolerr.KindNoMatch},
		{"no match", "yoga", "", toolerr.KindNoMatch},
		{"empty name", "  ", "", toolerr.KindInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Find("test.find", "event", items, tt.query, titleOf)
			if tt.wantID == "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, toolerr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.id)
		})
	}
}

func TestFind_AmbiguousListsCandidates(t *testing.T) {
	items := []item{{"a", "Call mom"}, {"b", "Call dad"}}
	_, err := Find("op", "task", items, "call", titleOf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Call mom"`)
	assert.Contains(t, err.Error(), `"Call dad"`)
}
