package feed

import (
	"github.com/labstack/echo/v4"

	"calsync/core/database"
	"calsync/core/middleware"
	"calsync/modules/feed/controller"
	"calsync/modules/feed/repository"
	"calsync/modules/feed/router"
	"calsync/modules/feed/service"
)

var svc *service.FeedService

func Init(e *echo.Echo, db database.IDatabase) {
	repo := repository.NewFeedRepository(db)
	svc = service.NewFeedService(repo)

	ctrl := controller.NewFeedController(svc)
	mw := middleware.NewMiddleware()
	router.NewFeedRouter(ctrl).Setup(e, mw)
}

// GetService exposes the aggregator to the event module's merged read.
func GetService() service.FeedServiceInterface {
	return svc
}
