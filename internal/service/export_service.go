package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/tms-allocation-api/pkg/errors"
	"github.com/noah-isme/tms-allocation-api/pkg/export"
)

// ExportFormat enumerates supported export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries a rendered allocation sheet.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders an allocation session into downloadable sheets.
type ExportService struct {
	sessions *AllocationService
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(sessions *AllocationService, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{sessions: sessions, csv: csv, pdf: pdf, logger: logger}
}

// Export renders the session table in the requested format.
func (s *ExportService) Export(sessionID string, format ExportFormat) (*ExportResult, error) {
	var (
		dataset    export.Dataset
		title      string
		trainingID string
	)
	err := s.sessions.SessionState(sessionID, func(state SessionState) error {
		dataset = buildAllocationDataset(state)
		trainingID = state.TrainingID
		title = fmt.Sprintf("Trainer Allocation %s", state.TrainingID)
		if state.CollegeName != "" {
			title = fmt.Sprintf("%s - %s", title, state.CollegeName)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().UTC().Format("20060102_150405")
	namePart := sanitizeFilename(trainingID)
	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("allocation_%s_%s.csv", namePart, timestamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("allocation_%s_%s.pdf", namePart, timestamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

var allocationHeaders = []string{
	"Domain", "Specialization", "Batch", "Students", "Hours Budget",
	"Trainer", "Slot", "Start Date", "End Date", "Assigned Hours", "Per Hour Cost",
}

func buildAllocationDataset(state SessionState) export.Dataset {
	var rows []map[string]string
	for _, row := range state.Table {
		for _, batch := range row.Batches {
			if len(batch.Trainers) == 0 {
				rows = append(rows, map[string]string{
					"Domain":         row.Domain,
					"Specialization": row.SpecializationName,
					"Batch":          batch.BatchCode,
					"Students":       fmt.Sprintf("%d", batch.StudentsAssigned),
					"Hours Budget":   fmt.Sprintf("%.2f", batch.HoursBudget),
				})
				continue
			}
			for _, assignment := range batch.Trainers {
				trainer := assignment.TrainerName
				if trainer == "" {
					trainer = assignment.TrainerID
				}
				rows = append(rows, map[string]string{
					"Domain":         row.Domain,
					"Specialization": row.SpecializationName,
					"Batch":          batch.BatchCode,
					"Students":       fmt.Sprintf("%d", batch.StudentsAssigned),
					"Hours Budget":   fmt.Sprintf("%.2f", batch.HoursBudget),
					"Trainer":        trainer,
					"Slot":           string(assignment.DayDuration),
					"Start Date":     assignment.StartDate,
					"End Date":       assignment.EndDate,
					"Assigned Hours": fmt.Sprintf("%.2f", assignment.AssignedHours),
					"Per Hour Cost":  fmt.Sprintf("%.2f", assignment.PerHourCost),
				})
			}
		}
	}
	return export.Dataset{Headers: append([]string(nil), allocationHeaders...), Rows: rows}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
