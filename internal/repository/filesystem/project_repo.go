// Package filesystem stores projects as directories under a root folder, one
// project.json record per directory next to the project's documents.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"pasassistant/internal/domain"
	"pasassistant/internal/port"
)

const (
	recordFile     = "project.json"
	attentionFile  = "attention.md"
	correctionsDir = "corrections"
)

type projectRepo struct {
	root string
	mu   sync.Mutex
}

// NewProjectRepo creates a filesystem-backed ProjectRepository rooted at dir.
func NewProjectRepo(dir string) (port.ProjectRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "projectRepo: create root %s", dir)
	}
	return &projectRepo{root: dir}, nil
}

func (r *projectRepo) dir(id string) string {
	return filepath.Join(r.root, filepath.Base(id))
}

func (r *projectRepo) Create(_ context.Context, project *domain.Project, original []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := r.dir(project.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "projectRepo.Create: mkdir %s", dir)
	}
	if err := os.WriteFile(r.OriginalPath(project), original, 0o644); err != nil {
		return eris.Wrap(err, "projectRepo.Create: write original")
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}
	project.UpdatedAt = project.CreatedAt
	return r.write(project)
}

func (r *projectRepo) Get(_ context.Context, id string) (*domain.Project, error) {
	return r.read(id)
}

// Save persists the record and stamps UpdatedAt. A project whose directory was
// deleted is not recreated.
func (r *projectRepo) Save(_ context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.dir(project.ID)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrProjectNotFound
		}
		return eris.Wrap(err, "projectRepo.Save")
	}
	project.UpdatedAt = time.Now().UTC()
	return r.write(project)
}

func (r *projectRepo) ListByUser(ctx context.Context, userEmail string) ([]domain.Project, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	projects := make([]domain.Project, 0, len(all))
	for i := range all {
		if all[i].UserEmail == userEmail {
			projects = append(projects, all[i])
		}
	}
	return projects, nil
}

// ListAll returns every readable project, newest first.
func (r *projectRepo) ListAll(_ context.Context) ([]domain.Project, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Project{}, nil
		}
		return nil, eris.Wrap(err, "projectRepo.ListAll")
	}
	projects := make([]domain.Project, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p, err := r.read(e.Name())
		if err != nil {
			if !errors.Is(err, domain.ErrProjectNotFound) {
				zap.L().Warn("skipping unreadable project", zap.String("project_id", e.Name()), zap.Error(err))
			}
			continue
		}
		projects = append(projects, *p)
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

func (r *projectRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := r.dir(id)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrProjectNotFound
		}
		return eris.Wrap(err, "projectRepo.Delete")
	}
	return eris.Wrapf(os.RemoveAll(dir), "projectRepo.Delete: remove %s", dir)
}

func (r *projectRepo) OriginalPath(p *domain.Project) string {
	return filepath.Join(r.dir(p.ID), "original."+string(p.Format))
}

func (r *projectRepo) WorkingPath(p *domain.Project) string {
	return filepath.Join(r.dir(p.ID), "working."+string(p.Format))
}

func (r *projectRepo) OutputPath(p *domain.Project) string {
	return filepath.Join(r.dir(p.ID), "output."+string(p.Format))
}

func (r *projectRepo) AttentionPath(p *domain.Project) string {
	return filepath.Join(r.dir(p.ID), attentionFile)
}

func (r *projectRepo) CorrectionPath(p *domain.Project, version int) string {
	return filepath.Join(r.dir(p.ID), correctionsDir, fmt.Sprintf("v%d.%s", version, p.Format))
}

func (r *projectRepo) read(id string) (*domain.Project, error) {
	data, err := os.ReadFile(filepath.Join(r.dir(id), recordFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, eris.Wrapf(err, "projectRepo: read %s", id)
	}
	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrapf(err, "projectRepo: decode %s", id)
	}
	return &p, nil
}

// write replaces project.json through a temp file so readers never see a partial record.
func (r *projectRepo) write(p *domain.Project) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return eris.Wrap(err, "projectRepo: encode")
	}
	dir := r.dir(p.ID)
	tmp, err := os.CreateTemp(dir, ".project-*.json")
	if err != nil {
		return eris.Wrap(err, "projectRepo: create temp record")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "projectRepo: write record")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "projectRepo: close record")
	}
	return eris.Wrap(os.Rename(tmp.Name(), filepath.Join(dir, recordFile)), "projectRepo: replace record")
}
