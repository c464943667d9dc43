package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"pasassistant/internal/anonymizer"
	"pasassistant/internal/config"
	"pasassistant/internal/document"
	"pasassistant/internal/domain"
	"pasassistant/internal/port"
	"pasassistant/internal/reference"
	"pasassistant/internal/report"
)

const (
	progressStarting    = "Démarrage du traitement..."
	progressDone        = "Terminé"
	interruptedMessage  = "Traitement interrompu (redémarrage du serveur)."
	interruptedProgress = "Erreur : traitement interrompu"
	archiveLinkExpiry   = 7 * 24 * time.Hour
)

// ReferenceSelector picks the reference examples sent with the answer request.
type ReferenceSelector interface {
	Select(ctx context.Context, cadrage map[string]any, maxFiles int) ([]reference.Entry, error)
}

// GenerationService drives the answer generation pipeline of a project.
type GenerationService interface {
	// Start flips the project to generating and runs the pipeline in the
	// background. It returns the project as persisted before the pipeline runs.
	Start(ctx context.Context, projectID, userEmail string) (*domain.Project, error)
	// RecoverInterrupted marks projects left in generating by a previous
	// process as failed and returns how many were updated.
	RecoverInterrupted(ctx context.Context) (int, error)
	// Wait blocks until every pipeline started by this service has returned.
	Wait()
}

// GenerationDeps groups the collaborators of the generation service.
// Archive and Notifier are optional.
type GenerationDeps struct {
	Repo       port.ProjectRepository
	Documents  *document.Registry
	LLM        port.LLMService
	References ReferenceSelector
	Verbosity  config.VerbosityConfig
	Reference  config.ReferenceConfig
	Archive    port.ObjectStorage
	Notifier   port.Notifier
	AppURL     string
}

type generationService struct {
	deps GenerationDeps

	startMu sync.Mutex
	running sync.WaitGroup
}

// NewGenerationService creates a new GenerationService implementation.
func NewGenerationService(deps GenerationDeps) GenerationService {
	return &generationService{deps: deps}
}

func (s *generationService) Start(ctx context.Context, projectID, userEmail string) (*domain.Project, error) {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	project, err := requireOwned(ctx, s.deps.Repo, projectID, userEmail)
	if err != nil {
		return nil, err
	}
	switch project.Status {
	case domain.StatusGenerating:
		return nil, domain.ErrGenerationInProgress
	case domain.StatusCompleted:
		return nil, domain.ErrGenerationCompleted
	}

	now := time.Now().UTC()
	project.Status = domain.StatusGenerating
	project.ProgressStep = progressStarting
	project.ProgressPct = 0
	project.ErrorMessage = nil
	project.GenerationStartedAt = &now
	project.GenerationCompletedAt = nil
	project.LLMModel = s.deps.LLM.Model()
	if err := s.deps.Repo.Save(ctx, project); err != nil {
		return nil, eris.Wrap(err, "generation.Start")
	}

	run := *project
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		s.runPipeline(&run)
	}()
	return project, nil
}

func (s *generationService) Wait() {
	s.running.Wait()
}

func (s *generationService) RecoverInterrupted(ctx context.Context) (int, error) {
	projects, err := s.deps.Repo.ListAll(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "generation.RecoverInterrupted")
	}
	recovered := 0
	for i := range projects {
		p := &projects[i]
		if p.Status != domain.StatusGenerating {
			continue
		}
		zap.L().Warn("project was left generating, marking as error", zap.String("project_id", p.ID))
		p.SetError(interruptedMessage)
		p.ProgressStep = interruptedProgress
		if err := s.deps.Repo.Save(ctx, p); err != nil {
			zap.L().Error("failed to recover project", zap.String("project_id", p.ID), zap.Error(err))
			continue
		}
		recovered++
	}
	return recovered, nil
}

// pipelineRun is the state threaded through the stages of one generation.
type pipelineRun struct {
	project     *domain.Project
	adapter     port.DocumentAdapter
	anon        *anonymizer.Anonymizer
	workingPath string
	outputPath  string
	questions   []domain.Question
	references  []reference.Entry
	cadrageText string
	answers     []domain.Answer
	points      []domain.AttentionPoint
}

// stage is one step of the pipeline. Progress is persisted before run when
// message is set; skip lets a stage opt out for the current project.
type stage struct {
	name    string
	pct     int
	message func(r *pipelineRun) string
	skip    func(r *pipelineRun) bool
	run     func(ctx context.Context, r *pipelineRun) error
}

func fixed(msg string) func(*pipelineRun) string {
	return func(*pipelineRun) string { return msg }
}

func (s *generationService) stages() []stage {
	return []stage{
		{name: "working_copy", pct: 5, message: fixed("Création de la copie de travail…"), run: s.stageWorkingCopy},
		{name: "prune_sheets", skip: noSheetsToPrune, run: s.stagePruneSheets},
		{name: "anonymize", pct: 15, message: fixed("Anonymisation du document…"), run: s.stageAnonymize},
		{name: "extract_questions", pct: 25, message: fixed("Extraction des questions…"), run: s.stageExtractQuestions},
		{name: "questions_extracted", pct: 30, message: func(r *pipelineRun) string {
			return fmt.Sprintf("Questions extraites : %d question(s)…", len(r.questions))
		}},
		{name: "select_references", pct: 35, message: fixed("Sélection des fichiers de référence…"), run: s.stageSelectReferences},
		{name: "generate_answers", pct: 50, message: func(r *pipelineRun) string {
			return fmt.Sprintf("Appel Claude — génération des réponses (%d questions)…", len(r.questions))
		}, run: s.stageGenerateAnswers},
		{name: "write_answers", pct: 70, message: fixed("Écriture des réponses dans le document…"), run: s.stageWriteAnswers},
		{name: "deanonymize", pct: 80, message: fixed("Dé-anonymisation du document…"), skip: noAnonymization, run: s.stageDeanonymize},
		{name: "attention_points", pct: 88, message: fixed("Appel Claude — points d'attention…"), run: s.stageAttentionPoints},
		{name: "finalize", pct: 95, message: fixed("Finalisation…"), run: s.stageFinalize},
	}
}

func (s *generationService) runPipeline(project *domain.Project) {
	ctx := context.Background()
	started := time.Now()
	log := zap.L().With(zap.String("project_id", project.ID), zap.String("format", string(project.Format)))
	log.Info("generation pipeline started")

	r := &pipelineRun{
		project:     project,
		anon:        anonymizer.New(project.Anonymization),
		workingPath: s.deps.Repo.WorkingPath(project),
		outputPath:  s.deps.Repo.OutputPath(project),
	}
	adapter, err := s.deps.Documents.For(project.Format)
	if err != nil {
		s.fail(ctx, project, err, started)
		return
	}
	r.adapter = adapter

	for _, st := range s.stages() {
		if st.skip != nil && st.skip(r) {
			continue
		}
		if st.message != nil {
			if err := s.progress(ctx, project, st.message(r), st.pct); err != nil {
				s.fail(ctx, project, err, started)
				return
			}
		}
		if st.run == nil {
			continue
		}
		t := time.Now()
		if err := st.run(ctx, r); err != nil {
			s.fail(ctx, project, eris.Wrapf(err, "stage %s", st.name), started)
			return
		}
		log.Info("stage finished", zap.String("stage", st.name), zap.Duration("elapsed", time.Since(t)))
	}

	done := time.Now().UTC()
	project.Status = domain.StatusCompleted
	project.ProgressStep = progressDone
	project.ProgressPct = 100
	project.GenerationCompletedAt = &done
	if err := s.deps.Repo.Save(ctx, project); err != nil {
		log.Error("failed to persist completed project", zap.Error(err))
		return
	}
	log.Info("generation pipeline completed",
		zap.Int("questions", len(r.questions)),
		zap.Int("attention_points", len(r.points)),
		zap.Duration("elapsed", time.Since(started)))

	s.afterCompletion(ctx, r)
}

func (s *generationService) progress(ctx context.Context, p *domain.Project, step string, pct int) error {
	p.Status = domain.StatusGenerating
	p.ProgressStep = step
	p.ProgressPct = pct
	return s.deps.Repo.Save(ctx, p)
}

// fail records a pipeline error on the project. Artifacts already written are kept.
func (s *generationService) fail(ctx context.Context, p *domain.Project, err error, started time.Time) {
	msg := err.Error()
	zap.L().Error("generation pipeline failed",
		zap.String("project_id", p.ID), zap.Duration("elapsed", time.Since(started)), zap.Error(err))
	p.SetError(msg)
	p.ProgressStep = "Erreur : " + msg
	if err := s.deps.Repo.Save(ctx, p); err != nil {
		zap.L().Error("failed to persist pipeline error", zap.String("project_id", p.ID), zap.Error(err))
	}
}

func noSheetsToPrune(r *pipelineRun) bool {
	_, ok := r.adapter.(port.SheetPruner)
	return !ok || r.project.Structure == nil || len(r.project.Structure.Sheets) == 0
}

func noAnonymization(r *pipelineRun) bool {
	return r.anon.Empty()
}

func (s *generationService) stageWorkingCopy(_ context.Context, r *pipelineRun) error {
	return copyFile(s.deps.Repo.OriginalPath(r.project), r.workingPath)
}

func (s *generationService) stagePruneSheets(ctx context.Context, r *pipelineRun) error {
	keep := r.project.Structure.SheetNames()
	zap.L().Info("keeping listed sheets", zap.String("project_id", r.project.ID), zap.Strings("sheets", keep))
	return r.adapter.(port.SheetPruner).PruneSheets(ctx, r.workingPath, keep)
}

func (s *generationService) stageAnonymize(ctx context.Context, r *pipelineRun) error {
	if r.anon.Empty() {
		zap.L().Info("no anonymization rule", zap.String("project_id", r.project.ID))
		return nil
	}
	return r.adapter.Anonymize(ctx, r.workingPath, r.anon)
}

func (s *generationService) stageExtractQuestions(ctx context.Context, r *pipelineRun) error {
	structure := r.project.Structure
	if structure == nil {
		structure = domain.DefaultStructure(r.project.Format)
	}
	questions, err := r.adapter.ExtractQuestions(ctx, r.workingPath, structure)
	if err != nil {
		return err
	}
	r.questions = questions
	return nil
}

func (s *generationService) stageSelectReferences(ctx context.Context, r *pipelineRun) error {
	maxFiles := s.deps.Reference.MaxFiles
	entries, err := s.deps.References.Select(ctx, r.project.Cadrage, maxFiles)
	if err != nil {
		return err
	}
	r.references = entries
	used := make([]string, 0, len(entries))
	for _, e := range entries {
		used = append(used, e.Path)
	}
	r.project.ReferenceFilesUsed = used
	return s.deps.Repo.Save(ctx, r.project)
}

func (s *generationService) stageGenerateAnswers(ctx context.Context, r *pipelineRun) error {
	r.cadrageText = report.Cadrage(r.project.Cadrage)
	texts := make([]string, 0, len(r.references))
	for _, e := range r.references {
		texts = append(texts, e.Content)
	}
	answers, err := s.deps.LLM.GenerateAnswers(ctx, port.AnswerRequest{
		CadrageText:    r.cadrageText,
		VerbosityText:  s.deps.Verbosity.Directive(r.project.VerbosityLevel),
		QuestionList:   report.QuestionList(r.questions),
		ReferenceTexts: texts,
	})
	if err != nil {
		return err
	}
	r.answers = answers
	return nil
}

func (s *generationService) stageWriteAnswers(ctx context.Context, r *pipelineRun) error {
	if err := copyFile(r.workingPath, r.outputPath); err != nil {
		return err
	}
	structure := r.project.Structure
	if structure == nil {
		structure = domain.DefaultStructure(r.project.Format)
	}
	n, err := r.adapter.WriteAnswers(ctx, r.outputPath, domain.AnswerMap(r.answers), structure)
	if err != nil {
		return err
	}
	zap.L().Info("answers written", zap.String("project_id", r.project.ID), zap.Int("written", n), zap.Int("generated", len(r.answers)))
	return nil
}

func (s *generationService) stageDeanonymize(ctx context.Context, r *pipelineRun) error {
	return r.adapter.Deanonymize(ctx, r.outputPath, r.anon)
}

func (s *generationService) stageAttentionPoints(ctx context.Context, r *pipelineRun) error {
	filled := report.AnsweredList(r.questions, domain.AnswerMap(r.answers))
	points, err := s.deps.LLM.GenerateAttentionPoints(ctx, r.cadrageText, filled)
	if err != nil {
		return err
	}
	r.points = points
	return nil
}

func (s *generationService) stageFinalize(_ context.Context, r *pipelineRun) error {
	path := s.deps.Repo.AttentionPath(r.project)
	return eris.Wrapf(os.WriteFile(path, []byte(report.Attention(r.points)), 0o644), "write %s", filepath.Base(path))
}

// afterCompletion archives the artifacts and notifies the owner. Failures are
// logged only; the project stays completed.
func (s *generationService) afterCompletion(ctx context.Context, r *pipelineRun) {
	log := zap.L().With(zap.String("project_id", r.project.ID))
	downloadURL := fmt.Sprintf("%s/projects/%s", s.deps.AppURL, r.project.ID)

	if s.deps.Archive != nil {
		outputKey, err := s.archive(ctx, r.project, r.outputPath, "output."+string(r.project.Format), domain.ContentTypes[r.project.Format])
		if err != nil {
			log.Warn("failed to archive output", zap.Error(err))
		} else if url, err := s.deps.Archive.PresignedURL(ctx, outputKey, archiveLinkExpiry); err != nil {
			log.Warn("failed to presign archived output", zap.Error(err))
		} else {
			downloadURL = url
		}
		if _, err := s.archive(ctx, r.project, s.deps.Repo.AttentionPath(r.project), "attention.md", "text/markdown; charset=utf-8"); err != nil {
			log.Warn("failed to archive attention report", zap.Error(err))
		}
	}

	if s.deps.Notifier != nil {
		err := s.deps.Notifier.SendCompletionEmail(ctx, port.CompletionNotice{
			ToEmail:          r.project.UserEmail,
			ProjectID:        r.project.ID,
			OriginalFilename: r.project.OriginalFilename,
			QuestionCount:    len(r.questions),
			AttentionCount:   len(r.points),
			DownloadURL:      downloadURL,
		})
		if err != nil {
			log.Warn("failed to send completion email", zap.Error(err))
		}
	}
}

func (s *generationService) archive(ctx context.Context, p *domain.Project, path, name, contentType string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return "", eris.Wrapf(err, "stat %s", path)
	}
	return s.deps.Archive.Upload(ctx, port.ArchiveObject{
		Key:         ArchiveKey(p, name),
		Body:        f,
		ContentType: contentType,
		Size:        info.Size(),
	})
}

// ArchiveKey returns the object key of a project artifact.
func ArchiveKey(p *domain.Project, name string) string {
	return fmt.Sprintf("projects/%s/%s", p.ID, name)
}

// ArchivePrefix returns the key prefix holding every archived artifact of a project.
func ArchivePrefix(projectID string) string {
	return fmt.Sprintf("projects/%s/", projectID)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "open %s", filepath.Base(src))
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return eris.Wrapf(err, "create %s", filepath.Base(dst))
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = eris.Wrapf(cerr, "close %s", filepath.Base(dst))
		}
	}()
	if _, err = io.Copy(out, in); err != nil {
		return eris.Wrapf(err, "copy to %s", filepath.Base(dst))
	}
	return nil
}
