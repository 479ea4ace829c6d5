package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/service"
)

type handlers struct {
	svcs *service.Services
}

// Register mounts the power, spare part and equipment routes on app.
func Register(app *fiber.App, svcs *service.Services) {
	h := &handlers{svcs: svcs}

	power := app.Group("/power")
	power.Post("/report", h.fetchReport)
	power.Get("/report", h.report)
	power.Get("/live", h.live)
	power.Post("/archive", h.archive)
	power.Get("/archive", h.archived)
	power.Post("/export", h.export)
	power.Get("/summary", h.summary)

	parts := app.Group("/sparepart")
	parts.Get("/categories", h.categories)
	parts.Post("/items", h.items)
	parts.Get("/dashboard", h.dashboard)

	equipment := app.Group("/equipment")
	equipment.Get("/locations", h.locations)
	equipment.Get("/tree", h.tree)
	equipment.Post("/:id/log", h.logEvent)
	equipment.Get("/:id/maintenance", h.maintenance)
}

// ownerView names an owner and the view over its readings. It is read from
// the query string and, for POST routes, from the body.
type ownerView struct {
	OwnerID     string `json:"owner_id" form:"owner_id" query:"owner_id"`
	Granularity string `json:"granularity" form:"granularity" query:"granularity"`
	StartTime   string `json:"start_time" form:"start_time" query:"start_time"`
	EndTime     string `json:"end_time" form:"end_time" query:"end_time"`
}

func (v ownerView) view() service.View {
	return service.View{Granularity: v.Granularity, StartTime: v.StartTime, EndTime: v.EndTime}
}

func parseOwnerView(c *fiber.Ctx) (ownerView, error) {
	var v ownerView
	if err := c.QueryParser(&v); err != nil {
		return v, badRequest(err)
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&v); err != nil {
			return v, badRequest(err)
		}
	}
	return v, nil
}

func badRequest(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid request: "+err.Error())
}

func (h *handlers) fetchReport(c *fiber.Ctx) error {
	var req service.ReportRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, badRequest(err))
	}
	rep, err := h.svcs.Power.Fetch(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rep)
}

func (h *handlers) report(c *fiber.Ctx) error {
	v, err := parseOwnerView(c)
	if err != nil {
		return writeError(c, err)
	}
	rep, err := h.svcs.Power.Report(v.OwnerID, v.view())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rep)
}

func (h *handlers) live(c *fiber.Ctx) error {
	v, err := parseOwnerView(c)
	if err != nil {
		return writeError(c, err)
	}
	rep, err := h.svcs.Power.Live(v.OwnerID, v.view())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rep)
}

func (h *handlers) archive(c *fiber.Ctx) error {
	v, err := parseOwnerView(c)
	if err != nil {
		return writeError(c, err)
	}
	rep, err := h.svcs.Power.Archive(c.UserContext(), v.OwnerID, v.view())
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rep)
}

func (h *handlers) archived(c *fiber.Ctx) error {
	rows, err := h.svcs.Power.Archived(c.UserContext(), c.Query("owner_id"), c.Query("granularity"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rows)
}

func (h *handlers) export(c *fiber.Ctx) error {
	v, err := parseOwnerView(c)
	if err != nil {
		return writeError(c, err)
	}
	url, err := h.svcs.Power.Export(c.UserContext(), v.OwnerID, v.view())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

func (h *handlers) summary(c *fiber.Ctx) error {
	v, err := parseOwnerView(c)
	if err != nil {
		return writeError(c, err)
	}
	sum, err := h.svcs.Power.Summary(v.OwnerID, v.view())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sum)
}

func (h *handlers) categories(c *fiber.Ctx) error {
	if c.QueryBool("grouped") {
		groups, err := h.svcs.SpareParts.GroupedCategories(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(groups)
	}
	cats, err := h.svcs.SpareParts.Categories(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(cats)
}

func (h *handlers) items(c *fiber.Ctx) error {
	var q service.ItemQuery
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&q); err != nil {
			return writeError(c, badRequest(err))
		}
	}
	page, err := h.svcs.SpareParts.SearchItems(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(page)
}

type dashboardQuery struct {
	CategoryIDs []int    `query:"category_id"`
	Statuses    []string `query:"status"`
}

func (h *handlers) dashboard(c *fiber.Ctx) error {
	var q dashboardQuery
	if err := c.QueryParser(&q); err != nil {
		return writeError(c, badRequest(err))
	}
	d, err := h.svcs.SpareParts.Dashboard(c.UserContext(), service.DashboardFilter{
		CategoryIDs: q.CategoryIDs,
		Statuses:    q.Statuses,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(d)
}

func (h *handlers) locations(c *fiber.Ctx) error {
	level, err := h.svcs.Equipment.Locations(c.UserContext(), c.QueryInt("parent_id", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(level)
}

func (h *handlers) tree(c *fiber.Ctx) error {
	id := c.QueryInt("location_id", 0)
	if id <= 0 {
		return writeError(c, fiber.NewError(fiber.StatusBadRequest, "location_id is required"))
	}
	nodes, err := h.svcs.Equipment.Tree(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(nodes)
}

func (h *handlers) logEvent(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return writeError(c, service.ErrEquipmentRequired)
	}
	var req service.LogRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, badRequest(err))
	}
	entry, err := h.svcs.Equipment.LogEvent(c.UserContext(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *handlers) maintenance(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return writeError(c, service.ErrEquipmentRequired)
	}
	var q service.MaintenanceQuery
	if err := c.QueryParser(&q); err != nil {
		return writeError(c, badRequest(err))
	}
	p, err := h.svcs.Maintenance.Predict(c.UserContext(), id, q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}
