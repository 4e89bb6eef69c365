package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-chat/internal/cache"
	"marketplace-chat/internal/models"
	"marketplace-chat/internal/repositories/postgres"

	"gorm.io/gorm"
)

const approvedProjectsTTL = 30 * 24 * time.Hour

type ProjectService interface {
	CreateProject(ctx context.Context, clientID string, req *models.CreateProjectRequest) (*models.ProjectResponse, error)
	GetApprovedProjects(ctx context.Context, clientID string) ([]models.ProjectResponse, error)
	AssignFreelancer(ctx context.Context, projectID uint, clientID, freelancerID string) (*models.ProjectResponse, error)
	CompleteProject(ctx context.Context, projectID uint, clientID string) (*models.ProjectResponse, error)
}

type projectService struct {
	repo  postgres.ProjectRepository
	store *cache.Store
}

func NewProjectService(repo postgres.ProjectRepository, store *cache.Store) ProjectService {
	return &projectService{repo: repo, store: store}
}

func (s *projectService) CreateProject(ctx context.Context, clientID string, req *models.CreateProjectRequest) (*models.ProjectResponse, error) {
	if req.Title == "" || req.Budget <= 0 {
		return nil, fmt.Errorf("%w: title and a positive budget are required", ErrValidation)
	}

	project := &models.Project{
		ClientID:    clientID,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Status:      models.ProjectStatusOpen,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("project create failed: %w", err)
	}

	resp := project.Response()
	return &resp, nil
}

func (s *projectService) GetApprovedProjects(ctx context.Context, clientID string) ([]models.ProjectResponse, error) {
	return cache.ReadThrough(ctx, s.store, cache.ApprovedProjectsKey(clientID), cache.Absolute(approvedProjectsTTL),
		func(ctx context.Context) ([]models.ProjectResponse, error) {
			projects, err := s.repo.ListApprovedForClient(ctx, clientID)
			if err != nil {
				return nil, fmt.Errorf("project list failed: %w", err)
			}
			responses := make([]models.ProjectResponse, 0, len(projects))
			for _, p := range projects {
				responses = append(responses, p.Response())
			}
			return responses, nil
		})
}

// AssignFreelancer attaches a freelancer to an open project. Re-assigning a
// project that already has one is rejected outright; the assignment must be
// cleared through a separate flow first.
func (s *projectService) AssignFreelancer(ctx context.Context, projectID uint, clientID, freelancerID string) (*models.ProjectResponse, error) {
	project, err := s.findOwned(ctx, projectID, clientID)
	if err != nil {
		return nil, err
	}

	if project.FreelancerID != nil {
		return nil, fmt.Errorf("%w: project already has an assigned freelancer", ErrConflict)
	}

	project.FreelancerID = &freelancerID
	project.Status = models.ProjectStatusAssigned
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("project update failed: %w", err)
	}

	resp := project.Response()
	return &resp, nil
}

// CompleteProject marks an assigned project approved and invalidates the
// client's approved-projects cache so the next read sees it.
func (s *projectService) CompleteProject(ctx context.Context, projectID uint, clientID string) (*models.ProjectResponse, error) {
	project, err := s.findOwned(ctx, projectID, clientID)
	if err != nil {
		return nil, err
	}

	if project.Status != models.ProjectStatusAssigned {
		return nil, fmt.Errorf("%w: only assigned projects can be completed", ErrConflict)
	}

	project.Status = models.ProjectStatusApproved
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("project update failed: %w", err)
	}

	s.store.Invalidate(ctx, cache.ApprovedProjectsKey(clientID))

	resp := project.Response()
	return &resp, nil
}

func (s *projectService) findOwned(ctx context.Context, projectID uint, clientID string) (*models.Project, error) {
	project, err := s.repo.FindByID(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: project %d", ErrNotFound, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("project lookup failed: %w", err)
	}
	if project.ClientID != clientID {
		return nil, fmt.Errorf("%w: project belongs to another client", ErrNotAuthorized)
	}
	return project, nil
}
