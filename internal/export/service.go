// Package export produces XLSX workbooks summarizing processed contracts.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/nvaldebenito/contratos-pipeline/internal/entity"
)

// ContractSource is the slice of the store the exporter reads from.
type ContractSource interface {
	ListActive(ctx context.Context) ([]entity.Contract, error)
	LoadGraph(ctx context.Context, id uuid.UUID) (*entity.ContractGraph, error)
}

// Service is a tiny façade over the store that produces XLSX bytes.
type Service struct {
	source ContractSource
	logger *slog.Logger
}

func NewService(source ContractSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger}
}

// ExportContractsXLSX returns a workbook with one row per active contract,
// parties and fines folded into summary columns.
func (s *Service) ExportContractsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	contracts, err := s.source.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Contratos"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Documento",
		"Tipo Contrato",
		"Tipo Servicio",
		"Cliente",
		"Proveedor",
		"Fecha Inicio",
		"Fecha Término",
		"Monto Total",
		"Renovación Automática",
		"Partes (RUT)",
		"Multas (UF)",
		"Representantes",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, c := range contracts {
		g, err := s.source.LoadGraph(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("load contract %s: %w", c.ID, err)
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		amount := ""
		if c.TotalAmount != nil {
			amount = c.TotalAmount.String()
		}
		renewal := "No"
		if c.AutoRenewal {
			renewal = "Sí"
		}

		write(1, c.SourceDocumentName)
		write(2, c.ContractType)
		write(3, c.ServiceType)
		write(4, c.ClientParty)
		write(5, c.ProviderParty)
		write(6, c.StartDate.Format("2006-01-02"))
		write(7, c.EndDate.Format("2006-01-02"))
		write(8, amount)
		write(9, renewal)
		write(10, summarizeParties(g.Parties))
		write(11, summarizeFines(g.Fines))
		write(12, summarizeRepresentatives(g.Representatives))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 36)
	_ = f.SetColWidth(sheet, "B", "C", 22)
	_ = f.SetColWidth(sheet, "D", "E", 28)
	_ = f.SetColWidth(sheet, "F", "G", 13)
	_ = f.SetColWidth(sheet, "H", "H", 14)
	_ = f.SetColWidth(sheet, "J", "L", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(contracts),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func summarizeParties(parties []entity.Party) string {
	parts := make([]string, 0, len(parties))
	for _, p := range parties {
		if p.RUT != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", p.Name, p.RUT))
			continue
		}
		parts = append(parts, p.Name)
	}
	return strings.Join(parts, "; ")
}

func summarizeFines(fines []entity.Fine) string {
	parts := make([]string, 0, len(fines))
	for _, fine := range fines {
		if fine.AmountUF != nil {
			parts = append(parts, fmt.Sprintf("%s: %s UF", fine.InfractionType, fine.AmountUF.String()))
			continue
		}
		parts = append(parts, fine.InfractionType)
	}
	return strings.Join(parts, "; ")
}

func summarizeRepresentatives(reps []entity.Representative) string {
	parts := make([]string, 0, len(reps))
	for _, r := range reps {
		parts = append(parts, fmt.Sprintf("%s (%s)", r.Name, r.NationalID))
	}
	return strings.Join(parts, "; ")
}
