package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulePayloadEachIsDeterministic(t *testing.T) {
	raw := `{
		"B-201": {"Martes": [{"codigo": "2A"}], "Lunes": [{"codigo": "1A"}, {"codigo": "1B"}]},
		"A-101": {"Viernes": [{"codigo": "3C"}]}
	}`
	var payload SchedulePayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	var visited []string
	err := payload.Each(func(room, day string, s ImportSession) error {
		visited = append(visited, room+"/"+day+"/"+s.CourseCode)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"A-101/Viernes/3C",
		"B-201/Lunes/1A",
		"B-201/Lunes/1B",
		"B-201/Martes/2A",
	}, visited)
	assert.Equal(t, 4, payload.SessionCount())
}

func TestImportResultWarningsRenderAsArray(t *testing.T) {
	out, err := json.Marshal(ImportResult{Warnings: []string{}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"warnings":[]`)
}
