package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/moogar0880/problems"

	domainwf "github.com/garyjia/workflow-engine/internal/domain/workflow"
)

const problemContentType = "application/problem+json"

// Problem types that are not workflow error kinds
const (
	typeInvalidRequest = "InvalidRequest"
	typeInternalError  = "InternalError"
)

// internalErrorDetail is all a client learns about a non-domain failure
const internalErrorDetail = "the request could not be completed"

func writeProblem(c *gin.Context, problem *problems.Problem) {
	c.Header("Content-Type", problemContentType)
	c.JSON(problem.Status, problem)
}

func badRequest(c *gin.Context, detail string) {
	writeProblem(c, problems.NewStatusProblem(http.StatusBadRequest).
		WithInstance(c.Request.URL.Path).
		WithType(typeInvalidRequest).
		WithDetail(detail))
}

// handleEngineError renders err as a problem document. Workflow errors use
// their kind as the problem type; lookup misses get lookupStatus and every
// other workflow error is a 400. Anything else is logged and answered with
// an opaque 500.
func (h *Handlers) handleEngineError(c *gin.Context, err error, lookupStatus int) {
	var wfErr *domainwf.Error
	if !errors.As(err, &wfErr) {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		writeProblem(c, problems.NewStatusProblem(http.StatusInternalServerError).
			WithInstance(c.Request.URL.Path).
			WithType(typeInternalError).
			WithDetail(internalErrorDetail))
		return
	}

	status := http.StatusBadRequest
	if wfErr.Kind.Category() == domainwf.CategoryLookup {
		status = lookupStatus
	}

	writeProblem(c, problems.NewStatusProblem(status).
		WithInstance(c.Request.URL.Path).
		WithType(wfErr.Kind.String()).
		WithDetail(wfErr.Error()))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// describeValidation turns validator output into a single detail line
func describeValidation(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
