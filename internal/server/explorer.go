package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/format"
	"github.com/vedsharma/momentscli/internal/logger"
	"github.com/vedsharma/momentscli/internal/params"
	"github.com/vedsharma/momentscli/internal/request"
	"github.com/vedsharma/momentscli/internal/session"
	"go.uber.org/zap"
)

// ExplorerRequest carries the whole editor state of one endpoint
type ExplorerRequest struct {
	Endpoint  string            `json:"endpoint"`
	APIKey    string            `json:"apiKey"`
	Overrides *params.Overrides `json:"overrides,omitempty"`
	// Payload is the raw JSON editor text, used by /api/payload/apply
	Payload string `json:"payload,omitempty"`
}

// CommandResponse is the returned preview of a request
type CommandResponse struct {
	Command string            `json:"command"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body,omitempty"`
}

// PayloadResponse is the raw JSON editor view
type PayloadResponse struct {
	Payload   string            `json:"payload"`
	Overrides *params.Overrides `json:"overrides"`
}

// EndpointResponse is an endpoint with its status table
type EndpointResponse struct {
	catalog.Endpoint
	StatusCodes map[int]string `json:"status_codes"`
}

var documentedStatuses = []int{200, 400, 401, 403, 404, 422}

func (s *Server) listEndpoints(c *fiber.Ctx) error {
	return c.JSON(s.state.Catalog().All())
}

func (s *Server) getEndpoint(c *fiber.Ctx) error {
	ep, err := s.state.Catalog().Get(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	codes := make(map[int]string, len(documentedStatuses))
	for _, code := range documentedStatuses {
		codes[code] = format.StatusDescription(code)
	}
	return c.JSON(EndpointResponse{Endpoint: ep, StatusCodes: codes})
}

// parseExplorer decodes the body and resolves the endpoint
func (s *Server) parseExplorer(c *fiber.Ctx) (ExplorerRequest, catalog.Endpoint, error) {
	var req ExplorerRequest
	if err := c.BodyParser(&req); err != nil {
		return req, catalog.Endpoint{}, fiber.NewError(fiber.StatusBadRequest, "Failed to parse request body: "+err.Error())
	}
	if req.Endpoint == "" {
		return req, catalog.Endpoint{}, fiber.NewError(fiber.StatusBadRequest, session.ErrNoEndpoint.Error())
	}
	ep, err := s.state.Catalog().Get(req.Endpoint)
	if err != nil {
		return req, catalog.Endpoint{}, fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if req.Overrides == nil {
		req.Overrides = params.New()
	}
	return req, ep, nil
}

func (s *Server) command(c *fiber.Ctx) error {
	req, ep, err := s.parseExplorer(c)
	if err != nil {
		return err
	}

	parts := request.BuildParts(ep, req.APIKey, req.Overrides)
	body, err := parts.BodyJSON()
	if err != nil {
		return err
	}
	return c.JSON(CommandResponse{
		Command: parts.CommandText(),
		Method:  parts.Method,
		URL:     parts.URL,
		Headers: parts.HeaderMap(),
		Body:    string(body),
	})
}

func (s *Server) payload(c *fiber.Ctx) error {
	req, ep, err := s.parseExplorer(c)
	if err != nil {
		return err
	}
	text, err := req.Overrides.Payload(ep)
	if err != nil {
		return err
	}
	return c.JSON(PayloadResponse{Payload: text, Overrides: req.Overrides})
}

// applyPayload merges the raw editor text into the overrides. Malformed text
// is rejected and the caller keeps its prior state.
func (s *Server) applyPayload(c *fiber.Ctx) error {
	req, ep, err := s.parseExplorer(c)
	if err != nil {
		return err
	}

	o := req.Overrides.Clone()
	if err := o.ApplyPayload(ep, req.Payload); err != nil {
		if errors.Is(err, params.ErrInvalidJSON) {
			logger.Warn("discarding malformed payload edit", zap.String("endpoint", ep.ID), zap.Error(err))
			return badRequest(c, err)
		}
		return err
	}
	text, err := o.Payload(ep)
	if err != nil {
		return err
	}
	return c.JSON(PayloadResponse{Payload: text, Overrides: o})
}

// execute runs the request upstream. Upstream failures are not API errors:
// they come back as a normalized response with status 0.
func (s *Server) execute(c *fiber.Ctx) error {
	var req ExplorerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Failed to parse request body: "+err.Error())
	}

	resp, err := s.state.Execute(c.UserContext(), session.Request{
		EndpointID: req.Endpoint,
		APIKey:     req.APIKey,
		Overrides:  req.Overrides,
	})
	switch {
	case errors.Is(err, session.ErrMissingAPIKey), errors.Is(err, session.ErrNoEndpoint):
		return badRequest(c, err)
	case errors.Is(err, catalog.ErrUnknownEndpoint):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case err != nil:
		return err
	}
	return c.JSON(resp)
}

func (s *Server) lastResponse(c *fiber.Ctx) error {
	resp := s.state.Last()
	if resp == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(resp)
}
