package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/veerhooda/campus-timetable-api/internal/models"
	appErrors "github.com/veerhooda/campus-timetable-api/pkg/errors"
	"github.com/veerhooda/campus-timetable-api/pkg/export"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

var exportHeaders = []string{"Day", "Start", "End", "Subject", "Teacher", "Room", "Type"}

type weekLoader interface {
	GetClassWeek(ctx context.Context, classID string) ([]models.DaySchedule, error)
}

// ExportResult bundles rendered bytes with transport metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders weekly class timetables as CSV or PDF.
type ExportService struct {
	timetable weekLoader
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService instantiates ExportService.
func NewExportService(timetable weekLoader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		timetable: timetable,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// ExportClassWeek renders the class's weekly timetable in the given format.
func (s *ExportService) ExportClassWeek(ctx context.Context, classID, format string) (*ExportResult, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	week, err := s.timetable.GetClassWeek(ctx, classID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: exportHeaders}
	className := classID
	for _, day := range week {
		for _, slot := range day.Slots {
			if slot.ClassName != "" {
				className = slot.ClassName
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Day":     day.Day,
				"Start":   slot.StartTime,
				"End":     slot.EndTime,
				"Subject": slot.SubjectName,
				"Teacher": slot.TeacherName,
				"Room":    slot.RoomName,
				"Type":    slot.SlotType,
			})
		}
	}

	switch format {
	case FormatPDF:
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Timetable %s", className))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable pdf")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("timetable-%s.pdf", classID),
		}, nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable csv")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("timetable-%s.csv", classID),
		}, nil
	}
}
