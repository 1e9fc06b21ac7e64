package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Día", "Inicio", "Fin", "Salón"},
		Rows: []map[string]string{
			{"Día": "Lunes", "Inicio": "08:00", "Fin": "10:00", "Salón": "A-101"},
			{"Día": "Miércoles", "Inicio": "10:00", "Fin": "12:00"},
		},
	}
}

func TestCSVExporter(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Día,Inicio,Fin,Salón\nLunes,08:00,10:00,A-101\nMiércoles,10:00,12:00,\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporter(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Horario A-101")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporter(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset(), "Horario")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	assert.Equal(t, []string{"Horario"}, f.GetSheetList())
	value, err := f.GetCellValue("Horario", "D2")
	require.NoError(t, err)
	assert.Equal(t, "A-101", value)
	value, err = f.GetCellValue("Horario", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Miércoles", value)
}
