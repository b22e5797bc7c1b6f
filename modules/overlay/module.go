package overlay

import (
	"github.com/labstack/echo/v4"

	"calsync/core/database"
	"calsync/core/middleware"
	eventservice "calsync/modules/event/service"
	"calsync/modules/overlay/controller"
	"calsync/modules/overlay/repository"
	"calsync/modules/overlay/router"
	"calsync/modules/overlay/service"
)

var svc *service.OverlayService

func Init(e *echo.Echo, db database.IDatabase, events eventservice.EventServiceInterface) {
	repo := repository.NewOverlayRepository(db)
	svc = service.NewOverlayService(repo, events)

	ctrl := controller.NewOverlayController(svc)
	mw := middleware.NewMiddleware()
	router.NewOverlayRouter(ctrl).Setup(e, mw)
}

// GetService exposes the hidden-set lookup to the merged event read.
func GetService() service.OverlayServiceInterface {
	return svc
}
