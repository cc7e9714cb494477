package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/garyjia/workflow-engine/internal/application/port"
	"github.com/garyjia/workflow-engine/internal/application/workflow"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine   workflow.Engine
	health   port.HealthChecker
	validate *validator.Validate
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(engine workflow.Engine, health port.HealthChecker, logger Logger) *Handlers {
	return &Handlers{
		engine:   engine,
		health:   health,
		validate: newValidator(),
		logger:   logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
	}

	if h.health != nil {
		if err := h.health.HealthCheck(c.Request.Context()); err != nil {
			h.logger.Error("Health check failed", "error", err)
			response.Status = "unhealthy"
			response.Error = err.Error()
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}

// CreateWorkflow handles POST /api/workflows
func (h *Handlers) CreateWorkflow(c *gin.Context) {
	var req CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(c, describeValidation(err))
		return
	}

	name, states, actions := req.toDomain()
	def, err := h.engine.CreateDefinition(c.Request.Context(), name, states, actions)
	if err != nil {
		h.handleEngineError(c, err, http.StatusBadRequest)
		return
	}

	c.Header("Location", "/api/workflows/"+def.ID)
	c.JSON(http.StatusCreated, toDefinitionResponse(def))
}

// GetWorkflow handles GET /api/workflows/:id
func (h *Handlers) GetWorkflow(c *gin.Context) {
	def, err := h.engine.GetDefinition(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleEngineError(c, err, http.StatusNotFound)
		return
	}

	c.JSON(http.StatusOK, toDefinitionResponse(def))
}

// ListWorkflows handles GET /api/workflows
func (h *Handlers) ListWorkflows(c *gin.Context) {
	defs, err := h.engine.ListDefinitions(c.Request.Context())
	if err != nil {
		h.handleEngineError(c, err, http.StatusNotFound)
		return
	}

	out := make([]DefinitionResponse, len(defs))
	for i, def := range defs {
		out[i] = toDefinitionResponse(def)
	}
	c.JSON(http.StatusOK, out)
}

// StartInstance handles POST /api/workflows/:id/instances
func (h *Handlers) StartInstance(c *gin.Context) {
	inst, err := h.engine.StartInstance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleEngineError(c, err, http.StatusBadRequest)
		return
	}

	c.Header("Location", "/api/instances/"+inst.ID)
	c.JSON(http.StatusCreated, toInstanceResponse(inst))
}

// GetInstance handles GET /api/instances/:id
func (h *Handlers) GetInstance(c *gin.Context) {
	inst, err := h.engine.GetInstance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleEngineError(c, err, http.StatusNotFound)
		return
	}

	c.JSON(http.StatusOK, toInstanceResponse(inst))
}

// ListInstances handles GET /api/instances
func (h *Handlers) ListInstances(c *gin.Context) {
	insts, err := h.engine.ListInstances(c.Request.Context())
	if err != nil {
		h.handleEngineError(c, err, http.StatusNotFound)
		return
	}

	out := make([]InstanceResponse, len(insts))
	for i, inst := range insts {
		out[i] = toInstanceResponse(inst)
	}
	c.JSON(http.StatusOK, out)
}

// ExecuteAction handles POST /api/instances/:id/actions/:actionId
func (h *Handlers) ExecuteAction(c *gin.Context) {
	inst, err := h.engine.ExecuteAction(c.Request.Context(), c.Param("id"), c.Param("actionId"))
	if err != nil {
		h.handleEngineError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, toInstanceResponse(inst))
}

// AvailableActions handles GET /api/instances/:id/actions
func (h *Handlers) AvailableActions(c *gin.Context) {
	actions, err := h.engine.AvailableActions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleEngineError(c, err, http.StatusNotFound)
		return
	}

	c.JSON(http.StatusOK, toActionResponses(actions))
}
