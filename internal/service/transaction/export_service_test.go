package transaction

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/models"
)

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()

	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "exported file must carry a UTF-8 BOM")

	r := csv.NewReader(bytes.NewReader(data[3:]))
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportService_ExportHistory(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t, models.ProgramTypePontuacao, 10, 100)
	exporter := NewExportService(f.db, 5000)

	_, err := f.svc.RecordSale(ctx, f.est.ID, 1, &RecordSaleRequest{
		CustomerID:  f.customer.ID,
		Subtotal:    150,
		Discount:    10,
		Description: "Pacote; completo \"promo\"",
	})
	require.NoError(t, err)

	file, err := exporter.ExportHistory(ctx, f.est.ID, &HistoryRequest{})
	require.NoError(t, err)
	assert.Equal(t, "transacoes_realizadas.csv", file.Filename)
	assert.Equal(t, 1, file.RowCount)

	records := parseCSV(t, file.Data)
	require.Len(t, records, 2)
	assert.Equal(t, []string{
		"ID", "Criado em", "Cliente", "WhatsApp", "Profissional", "Tipo",
		"Subtotal", "Desconto", "Total", "Pontos", "Status", "Descrição",
	}, records[0])

	row := records[1]
	assert.Equal(t, "Cliente Teste", row[2])
	assert.Equal(t, "5511999990001", row[3])
	assert.Equal(t, models.TransactionTypeCompra, row[5])
	assert.Equal(t, "150,00", row[6])
	assert.Equal(t, "10,00", row[7])
	assert.Equal(t, "140,00", row[8])
	assert.Equal(t, "14", row[9])
	// Delimiters and quotes inside fields survive the round trip.
	assert.Equal(t, "Pacote; completo \"promo\"", row[11])
}

func TestExportService_RowLimit(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t, models.ProgramTypePontuacao, 10, 100)
	exporter := NewExportService(f.db, 2)

	for i := 0; i < 3; i++ {
		_, err := f.svc.RecordSale(ctx, f.est.ID, 1, &RecordSaleRequest{Subtotal: 10})
		require.NoError(t, err)
	}

	_, err := exporter.ExportHistory(ctx, f.est.ID, &HistoryRequest{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrExportTooLarge.Code, errors.GetAppError(err).Code)
}

func TestExportService_EmptyExport(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t, models.ProgramTypePontuacao, 10, 100)
	exporter := NewExportService(f.db, 5000)

	file, err := exporter.ExportScheduled(ctx, f.est.ID, &HistoryRequest{})
	require.NoError(t, err)
	assert.Equal(t, "transacoes_futuras.csv", file.Filename)
	assert.Zero(t, file.RowCount)

	records := parseCSV(t, file.Data)
	require.Len(t, records, 1)
	assert.Equal(t, "Agendado em", records[0][1])
}
