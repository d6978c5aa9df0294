package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-ku/internal/weather"
)

// RegisterRoutes wires the table handlers into the Fiber app. The same
// handlers serve the legacy "/q" path and the versioned API.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	h := handlers{service: service}

	for _, path := range []string{"/q", "/api/v1/weather"} {
		app.Get(path, h.getRange)
		app.Post(path, h.insert)
		app.Put(path, h.update)
		app.Delete(path, h.delete)
	}

	v1 := app.Group("/api/v1/weather")
	v1.Get("/all", h.getAll)
	v1.Get("/stats", h.getStats)

	app.Get("/health", h.health)
}

type handlers struct {
	service *weather.Service
}

func sendTable(c *fiber.Ctx, t *weather.Table, fields weather.FieldSet) error {
	body, err := t.JSON(fields)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

func (h handlers) getRange(c *fiber.Ctx) error {
	q, err := bindRange(c)
	if err != nil {
		return err
	}

	t, err := h.service.Range(q.Dates[0], q.Dates[1])
	if err != nil {
		return err
	}
	return sendTable(c, t, q.Fields)
}

func (h handlers) getAll(c *fiber.Ctx) error {
	fields, err := fieldSet(c.Query("values"))
	if err != nil {
		return err
	}

	t, err := h.service.All()
	if err != nil {
		return err
	}
	return sendTable(c, t, fields)
}

func (h handlers) getStats(c *fiber.Ctx) error {
	q, err := bindRange(c)
	if err != nil {
		return err
	}

	raw := c.Query("value")
	if raw == "" {
		return newAPIError(fiber.StatusBadRequest, CodeMissingQuery, "query parameter \"value\" is required")
	}
	f, err := weather.ParseField(raw)
	if err != nil {
		return newAPIError(fiber.StatusBadRequest, CodeUnknownField, err.Error())
	}

	summary, err := h.service.Stats(q.Dates[0], q.Dates[1], f)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (h handlers) insert(c *fiber.Ctx) error {
	bodies, err := decodeBatch[recordBody](c)
	if err != nil {
		return err
	}

	records := make([]weather.Record, len(bodies))
	for i, b := range bodies {
		r, err := b.toRecord()
		if err != nil {
			return newAPIError(fiber.StatusBadRequest, CodeInvalidDate, err.Error())
		}
		records[i] = r
	}

	if err := h.service.Insert(records); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"inserted": len(records)})
}

func (h handlers) update(c *fiber.Ctx) error {
	dates, err := dateList(c)
	if err != nil {
		return err
	}
	bodies, err := decodeBatch[patchBody](c)
	if err != nil {
		return err
	}

	patches := make([]weather.Patch, len(bodies))
	for i, b := range bodies {
		patches[i] = b.toPatch()
	}

	if err := h.service.Update(dates, patches); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"updated": len(dates)})
}

func (h handlers) delete(c *fiber.Ctx) error {
	dates, err := dateList(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(dates); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": len(dates)})
}

func (h handlers) health(c *fiber.Ctx) error {
	state := h.service.State()

	resp := fiber.Map{
		"status":     "ok",
		"state":      state.String(),
		"records":    h.service.Len(),
		"last_flush": nil,
	}
	if at, ok := h.service.LastFlush(); ok {
		resp["last_flush"] = at
	}

	if state != weather.StateRunning {
		resp["status"] = "unavailable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
