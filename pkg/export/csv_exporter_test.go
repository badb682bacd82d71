package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRenderKeepsHeaderWidth(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Reference", "Amount", "Method"},
		Rows: []map[string]string{
			{"Reference": "OR-20260901-0001", "Amount": "4500.00", "Method": "CASH"},
			{"Reference": "OR-20260901-0002", "Amount": "1500.00"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"Reference,Amount,Method\nOR-20260901-0001,4500.00,CASH\nOR-20260901-0002,1500.00,\n",
		string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}
