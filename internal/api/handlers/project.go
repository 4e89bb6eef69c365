package handlers

import (
	"net/http"
	"strconv"

	"marketplace-chat/internal/models"
	"marketplace-chat/internal/services"
	"marketplace-chat/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService services.ProjectService
}

func NewProjectHandler(projectService services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), userID, &req)
	if err != nil {
		c.JSON(response.StatusFor(err), response.ErrorResponse{Error: response.Message(err)})
		return
	}
	c.JSON(http.StatusCreated, project)
}

// GetApprovedProjects lists the caller's completed projects.
func (h *ProjectHandler) GetApprovedProjects(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	projects, err := h.projectService.GetApprovedProjects(c.Request.Context(), userID)
	if err != nil {
		c.JSON(response.StatusFor(err), response.ErrorResponse{Error: response.Message(err)})
		return
	}
	c.JSON(http.StatusOK, projects)
}

// AssignFreelancer puts a freelancer on an open project. Re-assigning an
// already staffed project is rejected.
func (h *ProjectHandler) AssignFreelancer(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "invalid project id"})
		return
	}

	var req models.AssignProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	project, err := h.projectService.AssignFreelancer(c.Request.Context(), uint(projectID), userID, req.FreelancerID)
	if err != nil {
		c.JSON(response.StatusFor(err), response.ErrorResponse{Error: response.Message(err)})
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) CompleteProject(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "invalid project id"})
		return
	}

	project, err := h.projectService.CompleteProject(c.Request.Context(), uint(projectID), userID)
	if err != nil {
		c.JSON(response.StatusFor(err), response.ErrorResponse{Error: response.Message(err)})
		return
	}
	c.JSON(http.StatusOK, project)
}
