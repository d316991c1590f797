package transaction

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/utils"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
)

// ExportService renders transaction listings as CSV files.
type ExportService struct {
	db      *gorm.DB
	maxRows int
}

// NewExportService creates an ExportService. maxRows caps how many rows one
// export may carry.
func NewExportService(db *gorm.DB, maxRows int) *ExportService {
	if maxRows <= 0 {
		maxRows = 5000
	}
	return &ExportService{db: db, maxRows: maxRows}
}

// ExportFile is a rendered CSV download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	RowCount    int
}

var exportHeaders = []string{
	"ID",
	"Criado em",
	"Cliente",
	"WhatsApp",
	"Profissional",
	"Tipo",
	"Subtotal",
	"Desconto",
	"Total",
	"Pontos",
	"Status",
	"Descrição",
}

var scheduledExportHeaders = []string{
	"ID",
	"Agendado em",
	"Cliente",
	"WhatsApp",
	"Profissional",
	"Tipo",
	"Subtotal",
	"Desconto",
	"Total",
	"Pontos",
	"Status",
	"Descrição",
}

// ExportHistory exports past transactions matching the filter.
func (s *ExportService) ExportHistory(ctx context.Context, establishmentID int64, req *HistoryRequest) (*ExportFile, error) {
	return s.export(ctx, establishmentID, req, false)
}

// ExportScheduled exports upcoming bookings.
func (s *ExportService) ExportScheduled(ctx context.Context, establishmentID int64, req *HistoryRequest) (*ExportFile, error) {
	return s.export(ctx, establishmentID, req, true)
}

func (s *ExportService) export(ctx context.Context, establishmentID int64, req *HistoryRequest, future bool) (*ExportFile, error) {
	builder := &TransactionService{db: s.db}
	filter, err := builder.buildFilter(ctx, establishmentID, req)
	if err != nil {
		return nil, err
	}

	filename := "transacoes_realizadas.csv"
	headers := exportHeaders
	if future {
		filename = "transacoes_futuras.csv"
		headers = scheduledExportHeaders
	}

	var rows []*models.Transaction
	if filter != nil {
		filter.Scheduled = future
		filter.Future = future
		filter.Now = time.Now()

		txRepo := repository.NewTransactionRepository(s.db)
		var total int64
		rows, total, err = txRepo.ListForExport(ctx, establishmentID, s.maxRows, *filter)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao exportar transações", err)
		}
		if total > int64(s.maxRows) {
			return nil, errors.ErrExportTooLarge.WithMessage(
				fmt.Sprintf("Exportação excede o limite de %d linhas. Refine o período", s.maxRows))
		}
	}

	data, err := s.render(headers, rows, future)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternalError.Code, "Falha ao gerar CSV", err)
	}

	return &ExportFile{
		Filename:    filename,
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
		RowCount:    len(rows),
	}, nil
}

// render writes semicolon-delimited CSV with a UTF-8 BOM so spreadsheet
// applications configured for pt-BR open it correctly.
func (s *ExportService) render(headers []string, rows []*models.Transaction, future bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(headers); err != nil {
		return nil, err
	}

	for _, row := range rows {
		when := row.CreatedAt
		if future && row.ScheduledAt != nil {
			when = *row.ScheduledAt
		}

		customerName := ""
		whatsapp := ""
		if row.Customer != nil {
			customerName = row.Customer.Name
			whatsapp = row.Customer.WhatsApp
		}
		professionalName := ""
		if row.Professional != nil {
			professionalName = row.Professional.Name
		}

		record := []string{
			strconv.FormatInt(row.ID, 10),
			when.Format("02/01/2006 15:04"),
			customerName,
			whatsapp,
			professionalName,
			row.Type,
			utils.FormatMoneyBR(row.Subtotal),
			utils.FormatMoneyBR(row.Discount),
			utils.FormatMoneyBR(row.Total),
			strconv.Itoa(row.PointsMoved),
			row.Status,
			row.Description,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
