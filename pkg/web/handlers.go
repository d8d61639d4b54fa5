// Package web provides the HTTP handlers of the control panel.
package web

import (
	_ "embed"

	"github.com/dukex/clawtomations/pkg/services"
	"github.com/gofiber/fiber/v3"
)

//go:embed static/index.html
var indexHTML []byte

type APIHandlers struct {
	runs *services.Runs
}

func NewAPIHandlers(runs *services.Runs) *APIHandlers {
	return &APIHandlers{runs: runs}
}

// Index serves the control panel page.
func (h *APIHandlers) Index(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return c.Send(indexHTML)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, healthy := h.runs.HealthCheck(c.Context())
	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{Status: "unhealthy", Message: message})
	}

	return c.JSON(HealthResponse{Status: "ok"})
}

// RunWorkflow runs a workflow and responds once it has finished.
func (h *APIHandlers) RunWorkflow(c fiber.Ctx) error {
	req, err := parseRunRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(RunResponse{OK: false, Message: err.Error()})
	}

	result, err := h.runs.Execute(c.Context(), req)
	if err != nil {
		status := fiber.StatusInternalServerError
		if services.IsValidationError(err) {
			status = fiber.StatusBadRequest
		}

		response := RunResponse{OK: false, Message: err.Error()}
		if result != nil {
			response.RunID = result.RunID
			response.Report = result.ReportPath
		}

		return c.Status(status).JSON(response)
	}

	return c.JSON(RunResponse{
		OK:     true,
		RunID:  result.RunID,
		Status: string(result.Report.Status),
		Report: result.ReportPath,
	})
}

// StartRun queues a workflow run and responds with its id.
func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	req, err := parseRunRequest(c)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	runID, err := h.runs.Start(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(RunAcceptedResponse{RunID: runID})
}

func (h *APIHandlers) GetRuns(c fiber.Ctx) error {
	runs, err := h.runs.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"runs":        runs,
		"total_count": len(runs),
	})
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	id := c.Params("id")

	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	run, err := h.runs.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(run)
}

// parseRunRequest accepts an empty body as a request for the default workflow.
func parseRunRequest(c fiber.Ctx) (services.RunRequest, error) {
	var req services.RunRequest

	if len(c.Body()) == 0 {
		return req, nil
	}

	if err := c.Bind().JSON(&req); err != nil {
		return req, err
	}

	return req, nil
}
