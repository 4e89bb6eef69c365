package models

import (
	"time"

	"gorm.io/gorm"
)

// ProjectStatus tracks a project's lifecycle.
type ProjectStatus string

const (
	ProjectStatusOpen     ProjectStatus = "open"
	ProjectStatusAssigned ProjectStatus = "assigned"
	ProjectStatusApproved ProjectStatus = "approved"
)

/** --------------------ENTITIES-------------------- */
// Project is posted by a client and optionally assigned to one freelancer.
type Project struct {
	ID           uint           `gorm:"primaryKey" json:"projectId"`
	ClientID     string         `gorm:"not null;type:uuid;index" json:"clientId"`
	FreelancerID *string        `gorm:"type:uuid" json:"freelancerId"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `gorm:"nullable" json:"description"`
	Budget       float64        `gorm:"not null" json:"budget"`
	Status       ProjectStatus  `gorm:"not null;default:open" json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Client User `gorm:"foreignKey:ClientID;references:ID" json:"-"`
}

/** -------------------- DTOs -------------------- */
type CreateProjectRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Budget      float64 `json:"budget" binding:"required,gt=0"`
}

type AssignProjectRequest struct {
	FreelancerID string `json:"freelancerId" binding:"required"`
}

type ProjectResponse struct {
	ProjectID    uint          `json:"projectId"`
	ClientID     string        `json:"clientId"`
	FreelancerID *string       `json:"freelancerId"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Budget       float64       `json:"budget"`
	Status       ProjectStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
}

func (p *Project) Response() ProjectResponse {
	return ProjectResponse{
		ProjectID:    p.ID,
		ClientID:     p.ClientID,
		FreelancerID: p.FreelancerID,
		Title:        p.Title,
		Description:  p.Description,
		Budget:       p.Budget,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt,
	}
}
