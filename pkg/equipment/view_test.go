package equipment

import (
	"encoding/json"
	"testing"

	"equipapi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, v View) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestNewView_OmitsNotesForAnonymous(t *testing.T) {
	notes := "fragile"
	q := 5.0
	rec := models.Equipment{ID: 1, Name: "Drill", Quantity: &q, InternalNotes: &notes}

	m := encode(t, NewView(rec, false))
	assert.Equal(t, map[string]any{"id": 1.0, "name": "Drill", "quantity": 5.0}, m)
	_, present := m["internal_notes"]
	assert.False(t, present)
}

func TestNewView_AnonymousCannotTellMissingNotes(t *testing.T) {
	notes := "secret"
	with := encode(t, NewView(models.Equipment{ID: 1, Name: "A", InternalNotes: &notes}, false))
	without := encode(t, NewView(models.Equipment{ID: 1, Name: "A"}, false))
	assert.Equal(t, without, with)
}

func TestNewView_AuthenticatedIncludesNotes(t *testing.T) {
	notes := "fragile"
	m := encode(t, NewView(models.Equipment{ID: 2, Name: "Saw", InternalNotes: &notes}, true))
	assert.Equal(t, "fragile", m["internal_notes"])
	assert.Contains(t, m, "quantity")
	assert.Nil(t, m["quantity"])

	m = encode(t, NewView(models.Equipment{ID: 3, Name: "Hammer"}, true))
	v, present := m["internal_notes"]
	assert.True(t, present)
	assert.Nil(t, v)
}
