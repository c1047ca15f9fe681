package handlers

import (
	"log"

	"arena-tournament-service/middleware"
	"arena-tournament-service/services"

	"github.com/gofiber/fiber/v2"
)

type TournamentHandler struct {
	Service *services.TournamentService
}

func SetupTournamentRoutes(app *fiber.App, svc *services.TournamentService) {
	h := &TournamentHandler{Service: svc}

	// Public reads — no user context, tournaments are browsable by anyone.
	// Credentials are json-hidden on the model so these can never leak them.
	app.Get("/tournaments", h.List)
	app.Get("/tournaments/:id", h.Get)

	// Secured routes — caller identity comes from the gateway headers.
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/tournaments", h.Create)
	secured.Put("/tournaments/:id", h.Update)
	secured.Delete("/tournaments/:id", h.Delete)

	secured.Post("/tournaments/:id/join", h.Join)
	secured.Post("/tournaments/:id/participants/:userId/kick", h.Kick)
	secured.Put("/tournaments/:id/status", h.UpdateStatus)

	secured.Get("/tournaments/:id/credentials", h.GetCredentials)
	secured.Put("/tournaments/:id/credentials", h.UpdateCredentials)

	secured.Get("/tournaments/:id/events", h.StreamEvents)
}

// respondErr translates a service error into the REST surface: stable kind
// plus message for business failures, opaque 500 for everything else.
func respondErr(c *fiber.Ctx, err error) error {
	if ae, ok := services.AsAppError(err); ok {
		return c.Status(ae.HTTPStatus()).JSON(fiber.Map{
			"success": false,
			"kind":    ae.Kind,
			"error":   ae.Message,
		})
	}
	log.Printf("[HTTP] internal error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "internal server error",
	})
}

func callerID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func (h *TournamentHandler) Create(c *fiber.Ctx) error {
	var req services.CreateTournamentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "invalid JSON"})
	}
	t, err := h.Service.Create(callerID(c), req)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"success": true, "data": t})
}

func (h *TournamentHandler) List(c *fiber.Ctx) error {
	tournaments, err := h.Service.List()
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "count": len(tournaments), "data": tournaments})
}

func (h *TournamentHandler) Get(c *fiber.Ctx) error {
	t, err := h.Service.Get(c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": t})
}

func (h *TournamentHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateTournamentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "invalid JSON"})
	}
	t, err := h.Service.Update(c.Params("id"), callerID(c), req)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": t})
}

func (h *TournamentHandler) Delete(c *fiber.Ctx) error {
	if err := h.Service.Delete(c.Params("id"), callerID(c)); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "tournament deleted"})
}

func (h *TournamentHandler) Join(c *fiber.Ctx) error {
	var req struct {
		TeamName    string   `json:"team_name"`
		TeamMembers []string `json:"team_members"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "error": "invalid JSON"})
		}
	}
	roster, err := h.Service.Join(c.Params("id"), callerID(c), req.TeamName, req.TeamMembers)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "successfully joined tournament", "data": roster})
}

func (h *TournamentHandler) Kick(c *fiber.Ctx) error {
	roster, err := h.Service.Kick(c.Params("id"), callerID(c), c.Params("userId"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": roster})
}

func (h *TournamentHandler) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "invalid JSON"})
	}
	t, err := h.Service.SetStatus(c.Params("id"), callerID(c), req.Status)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": t})
}

func (h *TournamentHandler) GetCredentials(c *fiber.Ctx) error {
	creds, err := h.Service.GetCredentials(c.Params("id"), callerID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": creds})
}

func (h *TournamentHandler) UpdateCredentials(c *fiber.Ctx) error {
	var req services.UpdateCredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "invalid JSON"})
	}
	creds, err := h.Service.SetCredentials(c.Params("id"), callerID(c), req)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": creds})
}
