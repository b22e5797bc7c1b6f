package event

import (
	"github.com/labstack/echo/v4"

	"calsync/core/database"
	"calsync/core/middleware"
	connectservice "calsync/modules/connect/service"
	"calsync/modules/event/controller"
	"calsync/modules/event/repository"
	"calsync/modules/event/router"
	"calsync/modules/event/service"
	feedservice "calsync/modules/feed/service"
	overlayservice "calsync/modules/overlay/service"
)

var svc *service.EventService

// InitService builds the event service ahead of route registration; the
// overlay module needs it before this module's routes exist.
func InitService(db database.IDatabase, connect connectservice.ConnectServiceInterface) {
	repo := repository.NewEventRepository(db)
	svc = service.NewEventService(repo, connect)
}

func Init(e *echo.Echo, feeds feedservice.FeedServiceInterface, overlay overlayservice.OverlayServiceInterface) {
	ctrl := controller.NewEventController(svc, feeds, overlay)
	mw := middleware.NewMiddleware()
	router.NewEventRouter(ctrl).Setup(e, mw)
}

// GetService exposes the event service to the overlay module's fork-on-write.
func GetService() service.EventServiceInterface {
	return svc
}
