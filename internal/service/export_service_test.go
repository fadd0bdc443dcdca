package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/learn-coach-api/internal/models"
	"github.com/noah-isme/learn-coach-api/pkg/export"
	"github.com/noah-isme/learn-coach-api/pkg/storage"
)

// exportDataStub backs all three export readers with a canned curriculum.
type exportDataStub struct{}

func (exportDataStub) Active(ctx context.Context, studentID string) (*models.LearningPath, []models.Topic, error) {
	path := &models.LearningPath{ID: "path-1", StudentID: studentID, Goal: "Linear Algebra"}
	topics := []models.Topic{
		{ID: "top-1", PathID: "path-1", Name: "Vectors", OrderIndex: 1, EstimatedHours: 3},
		{ID: "top-2", PathID: "path-1", Name: "Matrices", OrderIndex: 2, EstimatedHours: 4},
	}
	return path, topics, nil
}

func (exportDataStub) StatusMap(ctx context.Context, studentID string, topics []models.Topic) (map[string]models.TopicStatus, error) {
	return map[string]models.TopicStatus{
		"top-1": models.StatusCompleted,
		"top-2": models.StatusInProgress,
	}, nil
}

func (exportDataStub) ListByStudent(ctx context.Context, studentID string) ([]models.StudySession, error) {
	return []models.StudySession{
		{ID: "ses-1", StudentID: studentID, RawTopicText: "vectors", DurationMinutes: 45, Mood: 4, Productivity: 4, OccurredAt: time.Now().UTC()},
	}, nil
}

func (exportDataStub) ListAnalysesByStudent(ctx context.Context, studentID string) ([]models.SessionAnalysis, error) {
	return []models.SessionAnalysis{
		{SessionID: "ses-1", StudentID: studentID, EffectivenessScore: 82, Source: models.AnalysisSourceFallback},
	}, nil
}

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	data := exportDataStub{}
	svc := NewExportService(data, data, data, store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-1",
		Type:      models.ReportTypeProgress,
		Params:    models.ReportJobParams{Format: models.ReportFormatCSV},
		StudentID: "stu-1",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.Contains(t, result.URL, "/export/")

	path := store.Path(result.RelativePath)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-2",
		Type:      models.ReportTypeSummary,
		Params:    models.ReportJobParams{Format: models.ReportFormatPDF},
		StudentID: "stu-1",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, models.ReportFormatPDF, result.Format)

	path := filepath.Clean(store.Path(result.RelativePath))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGenerateSessions(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-3",
		Type:      models.ReportTypeSessions,
		Params:    models.ReportJobParams{Format: models.ReportFormatCSV},
		StudentID: "stu-1",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
}

func TestExportServiceRejectsUnknownType(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-4",
		Type:      models.ReportType("transcript"),
		Params:    models.ReportJobParams{Format: models.ReportFormatCSV},
		StudentID: "stu-1",
	}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}
