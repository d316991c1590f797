// Package admin serves the platform operator surface.
package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/logger"
	"github.com/fidelizapp/fideliza-backend/internal/common/utils"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
)

// AdminService aggregates platform-level operations.
type AdminService struct {
	db *gorm.DB
}

// NewAdminService creates an AdminService.
func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// PlatformStats is the operator dashboard summary.
type PlatformStats struct {
	Establishments map[string]int64 `json:"establishments"`
	Customers      int64            `json:"customers"`
	Transactions   int64            `json:"transactions"`
}

// Stats summarizes the platform.
func (s *AdminService) Stats(ctx context.Context) (*PlatformStats, error) {
	estRepo := repository.NewEstablishmentRepository(s.db)
	byStatus, err := estRepo.CountByStatus(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao contar estabelecimentos", err)
	}

	customers, err := repository.NewCustomerRepository(s.db).CountAll(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao contar clientes", err)
	}

	transactions, err := repository.NewTransactionRepository(s.db).CountAll(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao contar transações", err)
	}

	return &PlatformStats{
		Establishments: byStatus,
		Customers:      customers,
		Transactions:   transactions,
	}, nil
}

// ListEstablishments pages through tenants with optional status and name
// filters.
func (s *AdminService) ListEstablishments(ctx context.Context, page, pageSize int, status, name string) ([]*models.Establishment, int64, error) {
	pagination := utils.Pagination{Page: page, PageSize: pageSize}
	pagination.Normalize()

	filters := map[string]interface{}{}
	if status != "" {
		filters["status"] = status
	}
	if name != "" {
		filters["name"] = name
	}

	return repository.NewEstablishmentRepository(s.db).
		List(ctx, pagination.GetOffset(), pagination.GetLimit(), filters)
}

// SetEstablishmentStatus moves a tenant between ativo, inativo and trial.
// Inactive tenants cannot record transactions but keep their data.
func (s *AdminService) SetEstablishmentStatus(ctx context.Context, establishmentID int64, status string) error {
	switch status {
	case models.EstablishmentStatusAtivo, models.EstablishmentStatusInativo, models.EstablishmentStatusTrial:
	default:
		return errors.ErrInvalidParams.WithMessage("Status inválido")
	}

	repo := repository.NewEstablishmentRepository(s.db)
	if _, err := repo.GetByID(ctx, establishmentID); err != nil {
		return errors.ErrEstablishmentNotFound
	}
	if err := repo.UpdateFields(ctx, establishmentID, map[string]interface{}{"status": status}); err != nil {
		return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao atualizar status", err)
	}

	logger.Info("status do estabelecimento alterado",
		logger.EstablishmentID(establishmentID),
		logger.String("status", status),
	)
	return nil
}

// AuditEntry records one operator or tenant action.
type AuditEntry struct {
	EstablishmentID int64
	UserID          *int64
	Module          string
	Action          string
	TargetType      string
	TargetID        int64
	Details         map[string]interface{}
	IP              string
	UserAgent       string
}

// RecordAudit writes an audit log row. Failures are logged and swallowed so
// auditing never breaks the operation being audited.
func (s *AdminService) RecordAudit(ctx context.Context, entry *AuditEntry) {
	log := &models.EstablishmentLog{
		EstablishmentID: entry.EstablishmentID,
		UserID:          entry.UserID,
		Module:          entry.Module,
		Action:          entry.Action,
		Details:         models.JSON(entry.Details),
		IP:              entry.IP,
	}
	if entry.TargetType != "" {
		log.TargetType = &entry.TargetType
	}
	if entry.TargetID > 0 {
		log.TargetID = &entry.TargetID
	}
	if entry.UserAgent != "" {
		log.UserAgent = &entry.UserAgent
	}

	if err := repository.NewLogRepository(s.db).Create(ctx, log); err != nil {
		logger.Error("falha ao gravar auditoria",
			logger.EstablishmentID(entry.EstablishmentID),
			logger.Module(entry.Module),
			logger.Err(err),
		)
	}
}

// ListLogs pages through the audit trail.
func (s *AdminService) ListLogs(ctx context.Context, page, pageSize int, filter repository.LogFilter) ([]*models.EstablishmentLog, int64, error) {
	pagination := utils.Pagination{Page: page, PageSize: pageSize}
	pagination.Normalize()

	return repository.NewLogRepository(s.db).
		List(ctx, pagination.GetOffset(), pagination.GetLimit(), filter)
}

// ExportLogs renders the audit trail as semicolon-delimited CSV.
func (s *AdminService) ExportLogs(ctx context.Context, maxRows int, filter repository.LogFilter) ([]byte, error) {
	if maxRows <= 0 {
		maxRows = 5000
	}

	logs, total, err := repository.NewLogRepository(s.db).ListForExport(ctx, maxRows, filter)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao exportar auditoria", err)
	}
	if total > int64(maxRows) {
		return nil, errors.ErrExportTooLarge
	}

	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write([]string{"ID", "Data", "Estabelecimento", "Usuário", "Módulo", "Ação", "Alvo", "IP"}); err != nil {
		return nil, err
	}
	for _, log := range logs {
		userID := ""
		if log.UserID != nil {
			userID = strconv.FormatInt(*log.UserID, 10)
		}
		target := ""
		if log.TargetType != nil {
			target = *log.TargetType
		}
		if log.TargetID != nil {
			target += "#" + strconv.FormatInt(*log.TargetID, 10)
		}
		if err := w.Write([]string{
			strconv.FormatInt(log.ID, 10),
			log.CreatedAt.Format("02/01/2006 15:04:05"),
			strconv.FormatInt(log.EstablishmentID, 10),
			userID,
			log.Module,
			log.Action,
			target,
			log.IP,
		}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PruneLogs deletes audit entries older than the retention window.
func (s *AdminService) PruneLogs(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return repository.NewLogRepository(s.db).DeleteOlderThan(ctx, time.Now().Add(-retention))
}
