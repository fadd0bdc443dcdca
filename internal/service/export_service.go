package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/learn-coach-api/internal/models"
	"github.com/noah-isme/learn-coach-api/pkg/export"
	"github.com/noah-isme/learn-coach-api/pkg/storage"
)

type exportPathReader interface {
	Active(ctx context.Context, studentID string) (*models.LearningPath, []models.Topic, error)
}

type exportProgressReader interface {
	StatusMap(ctx context.Context, studentID string, topics []models.Topic) (map[string]models.TopicStatus, error)
}

type exportSessionReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.StudySession, error)
	ListAnalysesByStudent(ctx context.Context, studentID string) ([]models.SessionAnalysis, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	paths    exportPathReader
	progress exportProgressReader
	sessions exportSessionReader
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(paths exportPathReader, progress exportProgressReader, sessions exportSessionReader, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		paths:    paths,
		progress: progress,
		sessions: sessions,
		storage:  store,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	studentPart := sanitizeFilename(job.StudentID)
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), studentPart, timestamp, job.Params.Format)
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

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeProgress:
		return s.buildProgressDataset(ctx, job.StudentID)
	case models.ReportTypeSessions:
		return s.buildSessionDataset(ctx, job.StudentID)
	case models.ReportTypeSummary:
		return s.buildSummaryDataset(ctx, job.StudentID)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildProgressDataset(ctx context.Context, studentID string) (export.Dataset, string, error) {
	path, topics, err := s.paths.Active(ctx, studentID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	statuses, err := s.progress.StatusMap(ctx, studentID, topics)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(topics))
	for _, topic := range topics {
		status := statuses[topic.ID]
		if status == "" {
			status = models.StatusNotStarted
		}
		dataRows = append(dataRows, map[string]string{
			"Order":           fmt.Sprintf("%d", topic.OrderIndex),
			"Topic":           topic.Name,
			"Status":          string(status),
			"Estimated Hours": fmt.Sprintf("%.1f", topic.EstimatedHours),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Order", "Topic", "Status", "Estimated Hours"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Progress Report: %s", path.Goal)
	return dataset, title, nil
}

func (s *ExportService) buildSessionDataset(ctx context.Context, studentID string) (export.Dataset, string, error) {
	sessions, err := s.sessions.ListByStudent(ctx, studentID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	analyses, err := s.sessions.ListAnalysesByStudent(ctx, studentID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	scoreBySession := make(map[string]models.SessionAnalysis, len(analyses))
	for _, analysis := range analyses {
		scoreBySession[analysis.SessionID] = analysis
	}
	dataRows := make([]map[string]string, 0, len(sessions))
	for _, session := range sessions {
		row := map[string]string{
			"Date":         session.OccurredAt.UTC().Format(time.RFC3339),
			"Topic":        session.RawTopicText,
			"Duration":     fmt.Sprintf("%d", session.DurationMinutes),
			"Mood":         fmt.Sprintf("%d", session.Mood),
			"Productivity": fmt.Sprintf("%d", session.Productivity),
			"Score":        "",
			"Source":       "",
		}
		if analysis, ok := scoreBySession[session.ID]; ok {
			row["Score"] = fmt.Sprintf("%d", analysis.EffectivenessScore)
			row["Source"] = analysis.Source
		}
		dataRows = append(dataRows, row)
	}
	dataset := export.Dataset{
		Headers: []string{"Date", "Topic", "Duration", "Mood", "Productivity", "Score", "Source"},
		Rows:    dataRows,
	}
	return dataset, "Study Session History", nil
}

func (s *ExportService) buildSummaryDataset(ctx context.Context, studentID string) (export.Dataset, string, error) {
	path, topics, err := s.paths.Active(ctx, studentID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	statuses, err := s.progress.StatusMap(ctx, studentID, topics)
	if err != nil {
		return export.Dataset{}, "", err
	}
	sessions, err := s.sessions.ListByStudent(ctx, studentID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	analyses, err := s.sessions.ListAnalysesByStudent(ctx, studentID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	completed := 0
	for _, topic := range topics {
		if statuses[topic.ID] == models.StatusCompleted {
			completed++
		}
	}
	totalMinutes := 0
	for _, session := range sessions {
		totalMinutes += session.DurationMinutes
	}

	rows := []map[string]string{
		{"Metric": "Goal", "Value": path.Goal},
		{"Metric": "Topics Completed", "Value": fmt.Sprintf("%d / %d", completed, len(topics))},
		{"Metric": "Sessions Logged", "Value": fmt.Sprintf("%d", len(sessions))},
		{"Metric": "Total Study Minutes", "Value": fmt.Sprintf("%d", totalMinutes)},
		{"Metric": "Average Effectiveness", "Value": fmt.Sprintf("%.1f", averageEffectiveness(analyses))},
	}
	dataset := export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Learning Summary: %s", path.Goal)
	return dataset, title, nil
}

func averageEffectiveness(analyses []models.SessionAnalysis) float64 {
	if len(analyses) == 0 {
		return 0
	}
	total := 0
	for _, analysis := range analyses {
		total += analysis.EffectivenessScore
	}
	return float64(total) / float64(len(analyses))
}
