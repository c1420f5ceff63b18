package services

import (
	"context"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/Legalistas/brixar-sub002/internal/models"
)

type IProjectService interface {
	CreateProject(ctx context.Context, p Principal, slug, name, description string) (*models.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error)
}

type projectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) IProjectService {
	return &projectService{db: db}
}

// Slugify lowercases s and joins its letter and digit runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}

func (s *projectService) CreateProject(ctx context.Context, p Principal, slug, name, description string) (*models.Project, error) {
	if !p.IsAdmin() {
		return nil, forbiddenErrorf("administrator role required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("name is required")
	}
	slug = Slugify(slug)
	if slug == "" {
		slug = Slugify(name)
	}
	project := &models.Project{Slug: slug, Name: name, Description: strings.TrimSpace(description)}
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, writeError("creating project", err)
	}
	return project, nil
}

func (s *projectService) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&project).Error; err != nil {
		return nil, lookupError("project", slug, err)
	}
	return &project, nil
}
