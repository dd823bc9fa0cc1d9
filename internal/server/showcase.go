package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vedsharma/momentscli/internal/logger"
	"github.com/vedsharma/momentscli/internal/sdk"
	"github.com/vedsharma/momentscli/internal/showcase"
	"go.uber.org/zap"
)

// ShowcaseView is the flow state sent to the page. Ops are the SDK side
// effects the page must replay.
type ShowcaseView struct {
	Step         showcase.Step      `json:"step"`
	Steps        []showcase.Step    `json:"steps"`
	Cart         []showcase.Product `json:"cart"`
	Offer        *showcase.Offer    `json:"offer,omitempty"`
	Subtotal     float64            `json:"subtotal"`
	Savings      float64            `json:"savings"`
	Total        float64            `json:"total"`
	FreeShipping bool               `json:"freeShipping"`
	Order        *showcase.Order    `json:"order,omitempty"`
	Ops          []sdk.Op           `json:"ops"`
}

type cartRequest struct {
	ProductID string `json:"productId"`
}

// view snapshots the flow and drains pending ops. Callers hold s.mu.
func (s *Server) view() ShowcaseView {
	v := ShowcaseView{
		Step:         s.flow.Step(),
		Steps:        showcase.Steps,
		Cart:         s.flow.Cart(),
		Subtotal:     s.flow.Total(),
		Savings:      s.flow.Savings(),
		FreeShipping: s.flow.FreeShipping(),
		Order:        s.flow.Order(),
		Ops:          s.doc.Flush(),
	}
	v.Total = v.Subtotal - v.Savings
	if v.Cart == nil {
		v.Cart = []showcase.Product{}
	}
	if o, ok := s.flow.Offer(); ok {
		v.Offer = &o
	}
	return v
}

// showcasePage renders a fresh page load: the document is reset and the
// launcher configured again so its bootstrap ops are embedded in the page.
func (s *Server) showcasePage(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Reload()
	s.flow.Reset()
	if err := s.launcher.Configure(s.settings, sdk.UserData{}); err != nil {
		return err
	}

	return s.render(c, "showcase.html", fiber.Map{
		"Products": s.flow.Products(),
		"State":    s.view(),
	})
}

func (s *Server) showcaseState(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.view())
}

func (s *Server) addToCart(c *fiber.Ctx) error {
	var req cartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Failed to parse request body: "+err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch err := s.flow.AddToCart(req.ProductID); {
	case errors.Is(err, showcase.ErrUnknownProduct):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, showcase.ErrFinished):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case err != nil:
		return err
	}
	return c.JSON(s.view())
}

func (s *Server) removeFromCart(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow.RemoveFromCart(c.Params("id"))
	return c.JSON(s.view())
}

func (s *Server) setCustomer(c *fiber.Ctx) error {
	var customer showcase.Customer
	if err := c.BodyParser(&customer); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Failed to parse request body: "+err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow.SetCustomer(customer)
	return c.JSON(s.view())
}

// nextStep advances the flow. A conversion the SDK rejects does not undo the
// order; it is logged and the page still moves to success.
func (s *Server) nextStep(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.flow.Next()
	switch {
	case errors.Is(err, showcase.ErrFinished):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case err != nil:
		logger.Warn("conversion not reported", zap.Error(err))
	}
	return c.JSON(s.view())
}

func (s *Server) resetShowcase(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow.Reset()
	return c.JSON(s.view())
}

// reportConversion forwards a conversion event from the page to the SDK
func (s *Server) reportConversion(c *fiber.Ctx) error {
	var event sdk.UserData
	if err := c.BodyParser(&event); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Failed to parse request body: "+err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.launcher.ReportConversion(event); err != nil {
		if errors.Is(err, sdk.ErrNotConfigured) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return err
	}
	return c.JSON(s.view())
}
