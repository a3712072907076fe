package routes

import "github.com/gofiber/fiber/v3"

// RegisterDiagnosticsRoutes 暴露 /-/healthz，用于确认服务存活以及缓存是否启用。
func RegisterDiagnosticsRoutes(app *fiber.App, svc Service) {
	if app == nil || svc == nil {
		return
	}

	app.Get("/-/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":        "ok",
			"cache_enabled": svc.CacheEnabled(),
		})
	})
}
