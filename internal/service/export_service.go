package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classquest-api/internal/models"
	"github.com/noah-isme/classquest-api/pkg/export"
	"github.com/noah-isme/classquest-api/pkg/storage"
)

type resultDetailReader interface {
	ListDetailsByTest(ctx context.Context, testID string) ([]models.TestResultDetail, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Format       models.ExportFormat
	Rows         int
}

// ExportService renders test results and persists the files.
type ExportService struct {
	tests     testReader
	results   resultDetailReader
	storage   fileStorage
	renderers map[models.ExportFormat]export.Renderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
}

// NewExportService constructs an ExportService with the CSV, PDF and XLSX renderers.
func NewExportService(tests testReader, results resultDetailReader, files fileStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		tests:   tests,
		results: results,
		storage: files,
		renderers: map[models.ExportFormat]export.Renderer{
			models.ExportFormatCSV:  export.NewCSVExporter(),
			models.ExportFormatPDF:  export.NewPDFExporter(),
			models.ExportFormatXLSX: export.NewXLSXExporter(),
		},
		signer: signer,
		logger: logger,
	}
}

// Generate builds the result dataset for the job's test and stores the rendered file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, ok := s.renderers[job.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", job.Format)
	}
	test, err := s.tests.FindByID(ctx, job.TestID)
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}
	rows, err := s.results.ListDetailsByTest(ctx, job.TestID)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	payload, err := renderer.Render(BuildResultDataset(test, rows))
	if err != nil {
		return nil, err
	}
	relPath, err := s.storage.Save(exportFilename(job), payload)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("export rendered",
		zap.String("job_id", job.ID),
		zap.String("format", string(job.Format)),
		zap.Int("rows", len(rows)),
	)
	return &ExportResult{RelativePath: relPath, Format: job.Format, Rows: len(rows)}, nil
}

// SignDownload issues a download token for a stored file.
func (s *ExportService) SignDownload(jobID, relPath string) (string, time.Time, error) {
	return s.signer.Generate(jobID, relPath)
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Verify(token)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

// BuildResultDataset lays out one row per submission in submission order.
func BuildResultDataset(test *models.Test, rows []models.TestResultDetail) export.Dataset {
	data := export.Dataset{
		Title:   "Results " + test.Title,
		Headers: []string{"Student", "Email", "Registration ID", "Class", "Score", "Total Points", "Correct", "Credits Earned", "Submitted At"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		data.AddRow(
			row.StudentName,
			row.StudentEmail,
			row.RegistrationID,
			string(row.StudentClass),
			strconv.Itoa(row.Score),
			strconv.Itoa(row.TotalPoints),
			fmt.Sprintf("%d/%d", row.CorrectCount, len(test.Questions)),
			strconv.Itoa(row.CreditsEarned),
			row.SubmittedAt.UTC().Format(time.RFC3339),
		)
	}
	return data
}

func exportFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("results/%s/%s_%s.%s", job.TestID, timestamp, job.ID, job.Format)
}
