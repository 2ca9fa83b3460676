package controller

import (
	"context"
	"time"

	"pharmacy-assistant-be/internal/dto"
	"pharmacy-assistant-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Live(ctx *fiber.Ctx) error
	Ready(ctx *fiber.Ctx) error
}

type healthController struct {
	checks map[string]HealthCheck
}

func NewHealthController(checks map[string]HealthCheck) IHealthController {
	return &healthController{checks: checks}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/healthz", c.Live)
	r.Get("/readyz", c.Ready)
}

func (c *healthController) Live(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("OK", dto.HealthResponse{Status: "ok"}))
}

func (c *healthController) Ready(ctx *fiber.Ctx) error {
	checkCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
	defer cancel()

	res := dto.HealthResponse{Status: "ok", Checks: make(map[string]string, len(c.checks))}
	for name, check := range c.checks {
		if err := check(checkCtx); err != nil {
			res.Status = "unavailable"
			res.Checks[name] = err.Error()
			continue
		}
		res.Checks[name] = "ok"
	}

	if res.Status != "ok" {
		body := serverutils.SuccessResponse("Not ready", res)
		body.Success = false
		body.Code = fiber.StatusServiceUnavailable
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	return ctx.JSON(serverutils.SuccessResponse("Ready", res))
}
