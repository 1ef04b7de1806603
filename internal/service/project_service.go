package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

var ErrProjectNotFound = errors.New("project not found")

type ProjectService struct {
	projects repository.ProjectRepository
	members  MembershipChecker
}

func NewProjectService(projects repository.ProjectRepository, members MembershipChecker) *ProjectService {
	return &ProjectService{projects: projects, members: members}
}

type CreateProjectInput struct {
	WorkspaceID string
	Name        string
	Slug        string
}

func (s *ProjectService) Create(ctx context.Context, userID string, input CreateProjectInput) (domain.Project, error) {
	name := cleanText(input.Name)
	slug := slugify(input.Slug)
	if slug == "" {
		slug = slugify(name)
	}

	verr := &ValidationError{}
	if name == "" {
		verr.add("name", "required")
	} else if tooLong(name, maxNameLength) {
		verr.add("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	if slug == "" && name != "" {
		verr.add("slug", "must contain letters or digits")
	}
	if err := verr.orNil(); err != nil {
		return domain.Project{}, err
	}

	if _, err := s.members.RequireMember(ctx, userID, input.WorkspaceID); err != nil {
		return domain.Project{}, err
	}

	project := domain.Project{
		ID:          uuid.NewString(),
		WorkspaceID: input.WorkspaceID,
		Name:        name,
		Slug:        slug,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, userID, workspaceID string) ([]domain.Project, error) {
	if _, err := s.members.RequireMember(ctx, userID, workspaceID); err != nil {
		return nil, err
	}
	list, err := s.projects.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Project{}
	}
	return list, nil
}

// Get oculta con ErrProjectNotFound los proyectos de workspaces ajenos.
func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (domain.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Project{}, ErrProjectNotFound
		}
		return domain.Project{}, err
	}
	if _, err := s.members.RequireMember(ctx, userID, project.WorkspaceID); err != nil {
		if errors.Is(err, ErrWorkspaceNotFound) {
			return domain.Project{}, ErrProjectNotFound
		}
		return domain.Project{}, err
	}
	return project, nil
}
