package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pasassistant/internal/config"
	"pasassistant/internal/domain"
	"pasassistant/internal/handler"
	"pasassistant/internal/intake"
	"pasassistant/internal/router"
	"pasassistant/internal/service"
	"pasassistant/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) (*gin.Engine, service.AuthService, *mocks.MockProjectService, *mocks.MockGenerationService) {
	t.Helper()
	authSvc := service.NewAuthService(config.JWTConfig{Secret: "router-secret", Issuer: "pas-assistant", Expiry: time.Hour})
	projects := new(mocks.MockProjectService)
	generation := new(mocks.MockGenerationService)
	r := router.Setup(authSvc,
		handler.NewProjectHandler(projects, generation, intake.NewCatalog(nil, nil), 1024),
		handler.NewHealthHandler(t.TempDir()),
		"https://pas.example.com",
	)
	return r, authSvc, projects, generation
}

func TestRouter_HealthIsPublic(t *testing.T) {
	r, _, _, _ := setup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_ProjectsRequireToken(t *testing.T) {
	r, _, projects, _ := setup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	projects.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestRouter_AuthenticatedRoutes(t *testing.T) {
	r, authSvc, projects, generation := setup(t)
	token, _, err := authSvc.IssueToken("alice@example.com")
	require.NoError(t, err)

	projects.On("List", mock.Anything, "alice@example.com").Return([]domain.Project{{ID: "proj_1"}}, nil)
	generation.On("Start", mock.Anything, "proj_1", "alice@example.com").Return(nil, domain.ErrGenerationInProgress)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/projects/proj_1/generate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	projects.AssertExpectations(t)
	generation.AssertExpectations(t)
}

func TestRouter_QuestionsRoute(t *testing.T) {
	r, authSvc, projects, _ := setup(t)
	token, _, err := authSvc.IssueToken("alice@example.com")
	require.NoError(t, err)
	projects.On("Get", mock.Anything, "proj_1", "alice@example.com").Return(&domain.Project{ID: "proj_1"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/proj_1/questions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"questions":[],"verbosity_question":{"id":99,"text":"Quel niveau de détail souhaitez-vous pour les réponses ?","type":"options","options":[],"multi":false,"condition":null}}}`, w.Body.String())
}

func TestRouter_CORSPreflight(t *testing.T) {
	r, _, _, _ := setup(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", "https://pas.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://pas.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
