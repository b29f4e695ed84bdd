package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-portal-api/internal/models"
	appErrors "github.com/noah-isme/uni-portal-api/pkg/errors"
	"github.com/noah-isme/uni-portal-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders approved transcript snapshots as downloadable
// documents. It only ever reads the frozen snapshot, so an export produced
// years after approval matches the record as it stood on approval day.
type ExportService struct {
	transcripts *TranscriptService
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(transcripts *TranscriptService, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{transcripts: transcripts, csv: csv, pdf: pdf, logger: logger}
}

// RenderPDF renders the frozen snapshot of an approved request as a PDF.
func (s *ExportService) RenderPDF(ctx context.Context, requestID string, actor *models.JWTClaims) ([]byte, string, error) {
	snapshot, err := s.transcripts.FrozenSnapshot(ctx, requestID, actor)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.pdf.Render(snapshotDataset(snapshot), fmt.Sprintf("Official Transcript - %s (%s)", snapshot.StudentName, snapshot.StudentNumber))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript pdf")
	}
	return payload, fmt.Sprintf("transcript-%s.pdf", snapshot.StudentNumber), nil
}

// RenderCSV renders the frozen snapshot of an approved request as CSV.
func (s *ExportService) RenderCSV(ctx context.Context, requestID string, actor *models.JWTClaims) ([]byte, string, error) {
	snapshot, err := s.transcripts.FrozenSnapshot(ctx, requestID, actor)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(snapshotDataset(snapshot))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript csv")
	}
	return payload, fmt.Sprintf("transcript-%s.csv", snapshot.StudentNumber), nil
}

func snapshotDataset(snapshot *models.TranscriptSnapshot) export.Dataset {
	headers := []string{"Semester", "Course Code", "Course Title", "Credits", "Status", "Percentage", "Grade", "Grade Points"}
	rows := make([]map[string]string, 0, len(snapshot.Courses)+1)
	for _, course := range snapshot.Courses {
		row := map[string]string{
			"Semester":     course.Semester,
			"Course Code":  course.CourseCode,
			"Course Title": course.CourseTitle,
			"Credits":      strconv.Itoa(course.Credits),
			"Status":       string(course.GradeStatus),
		}
		if course.Percentage != nil {
			row["Percentage"] = strconv.FormatFloat(*course.Percentage, 'f', 1, 64)
		}
		if course.LetterGrade != nil {
			row["Grade"] = *course.LetterGrade
		}
		if course.GradePoint != nil {
			row["Grade Points"] = strconv.FormatFloat(*course.GradePoint, 'f', 1, 64)
		}
		rows = append(rows, row)
	}

	summaryRow := map[string]string{
		"Course Title": "CUMULATIVE",
		"Credits":      strconv.Itoa(snapshot.TotalCredits),
	}
	if snapshot.GPA != nil {
		summaryRow["Grade Points"] = strconv.FormatFloat(*snapshot.GPA, 'f', 2, 64)
	}
	rows = append(rows, summaryRow)

	return export.Dataset{Headers: headers, Rows: rows}
}
