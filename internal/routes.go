package internal

import (
	"leetfresh/internal/controllers"
	"leetfresh/internal/providers"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController, pagesController *controllers.PagesController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/sync", http.HandlerFunc(apiController.Sync))
	routers.Get("/snapshot", http.HandlerFunc(apiController.GetSnapshot))
	routers.Get("/stats", http.HandlerFunc(apiController.GetStats))
	routers.Post("/annotate", http.HandlerFunc(apiController.Annotate))
	routers.Post("/navigate", http.HandlerFunc(apiController.Navigate))
	routers.Post("/data-updated", http.HandlerFunc(apiController.DataUpdated))

	routers.Post("/pages", http.HandlerFunc(pagesController.Open))
	routers.Get("/pages/content", http.HandlerFunc(pagesController.Content))
	routers.Put("/pages/content", http.HandlerFunc(pagesController.UpdateContent))
	routers.Post("/pages/close", http.HandlerFunc(pagesController.Close))
	return routers
}
