package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"pasassistant/internal/anonymizer"
	"pasassistant/internal/domain"
	"pasassistant/internal/intake"
	"pasassistant/internal/service"
)

// ProjectHandler handles questionnaire project endpoints.
type ProjectHandler struct {
	projects       service.ProjectService
	generation     service.GenerationService
	maxUploadBytes int64
	questions      intake.Catalog
}

// NewProjectHandler creates a new ProjectHandler. Uploads are read up to one
// byte past maxUploadBytes so the service can reject oversized files.
func NewProjectHandler(projects service.ProjectService, generation service.GenerationService, questions intake.Catalog, maxUploadBytes int64) *ProjectHandler {
	return &ProjectHandler{projects: projects, generation: generation, questions: questions, maxUploadBytes: maxUploadBytes}
}

// anonymizationRequest is the body of POST /projects/:id/anonymize.
type anonymizationRequest struct {
	Mappings []anonymizer.Mapping `json:"mappings"`
}

// readUpload reads the "file" form field. Returns false if the response was
// already written.
func (h *ProjectHandler) readUpload(c *gin.Context) (filename string, data []byte, ok bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return "", nil, false
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if h.maxUploadBytes > 0 {
		r = io.LimitReader(file, h.maxUploadBytes+1)
	}
	data, err = io.ReadAll(r)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file")
		return "", nil, false
	}
	return header.Filename, data, true
}

// Create handles POST /api/v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	project, err := h.projects.Create(c.Request.Context(), email, filename, data)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, project)
}

// List handles GET /api/v1/projects
func (h *ProjectHandler) List(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	projects, err := h.projects.List(c.Request.Context(), email)
	if err != nil {
		HandleError(c, err)
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	RespondOK(c, projects)
}

// Get handles GET /api/v1/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	project, err := h.projects.Get(c.Request.Context(), c.Param("id"), email)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, project)
}

// Status handles GET /api/v1/projects/:id/status
func (h *ProjectHandler) Status(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	view, err := h.projects.Status(c.Request.Context(), c.Param("id"), email)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}

// UpdateStructure handles PUT /api/v1/projects/:id/structure
// The body is either the structure itself or an object wrapping it under "structure".
func (h *ProjectHandler) UpdateStructure(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "structure body is required")
		return
	}
	var wrapper struct {
		Structure json.RawMessage `json:"structure"`
	}
	if json.Unmarshal(body, &wrapper) == nil && len(wrapper.Structure) > 0 {
		body = wrapper.Structure
	}

	project, err := h.projects.UpdateStructure(c.Request.Context(), c.Param("id"), email, body)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, project)
}

// Questions handles GET /api/v1/projects/:id/questions
func (h *ProjectHandler) Questions(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	if _, err := h.projects.Get(c.Request.Context(), c.Param("id"), email); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, h.questions)
}

// SubmitCadrage handles POST /api/v1/projects/:id/cadrage
func (h *ProjectHandler) SubmitCadrage(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	var input service.CadrageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	project, err := h.projects.SubmitCadrage(c.Request.Context(), c.Param("id"), email, input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, project)
}

// SubmitAnonymization handles POST /api/v1/projects/:id/anonymize
func (h *ProjectHandler) SubmitAnonymization(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	var req anonymizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	project, err := h.projects.SubmitAnonymization(c.Request.Context(), c.Param("id"), email, anonymizer.FromPairs(req.Mappings))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, project)
}

// Generate handles POST /api/v1/projects/:id/generate
// The pipeline keeps running after the response; clients poll the status endpoint.
func (h *ProjectHandler) Generate(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	project, err := h.generation.Start(c.Request.Context(), c.Param("id"), email)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, gin.H{
		"message": "Génération lancée",
		"project": project.StatusView(),
	})
}

// Output handles GET /api/v1/projects/:id/output
func (h *ProjectHandler) Output(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	project, path, err := h.projects.OutputPath(c.Request.Context(), c.Param("id"), email)
	if err != nil {
		HandleError(c, err)
		return
	}
	if ct, ok := domain.ContentTypes[project.Format]; ok {
		c.Header("Content-Type", ct)
	}
	c.FileAttachment(path, fmt.Sprintf("PAS_rempli_%s.%s", project.ID, project.Format))
}

// Attention handles GET /api/v1/projects/:id/attention
func (h *ProjectHandler) Attention(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	project, path, err := h.projects.AttentionPath(c.Request.Context(), c.Param("id"), email)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Type", "text/markdown; charset=utf-8")
	c.FileAttachment(path, fmt.Sprintf("points_attention_%s.md", project.ID))
}

// UploadCorrection handles POST /api/v1/projects/:id/corrections
func (h *ProjectHandler) UploadCorrection(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	_, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	version, err := h.projects.UploadCorrection(c.Request.Context(), c.Param("id"), email, data)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, gin.H{"message": "Correction enregistrée", "version": version})
}

// Delete handles DELETE /api/v1/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.projects.Delete(c.Request.Context(), id, email); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}
