package dto

import (
	"time"

	"github.com/noah-isme/classquest-api/internal/models"
)

// ExportRequest asks for a test's results in a given format.
type ExportRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf xlsx"`
}

// ExportJobResponse acknowledges job creation.
type ExportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ExportStatus `json:"status"`
}

// ExportStatusResponse describes a job and, once finished, its download token.
type ExportStatusResponse struct {
	ID            string              `json:"id"`
	TestID        string              `json:"testId"`
	Format        models.ExportFormat `json:"format"`
	Status        models.ExportStatus `json:"status"`
	DownloadToken *string             `json:"downloadToken,omitempty"`
	ExpiresAt     *time.Time          `json:"expiresAt,omitempty"`
	Error         *string             `json:"error,omitempty"`
}
