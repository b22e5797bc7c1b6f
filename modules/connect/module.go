package connect

import (
	"github.com/labstack/echo/v4"

	"calsync/core/cache"
	"calsync/core/database"
	"calsync/core/middleware"
	"calsync/modules/connect/controller"
	"calsync/modules/connect/repository"
	"calsync/modules/connect/router"
	"calsync/modules/connect/service"
)

var svc *service.ConnectService

func Init(e *echo.Echo, db database.IDatabase, c cache.Cache) {
	repo := repository.NewConnectRepository(db)
	svc = service.NewConnectService(repo, c)

	ctrl := controller.NewConnectController(svc)
	mw := middleware.NewMiddleware()
	router.NewConnectRouter(ctrl).Setup(e, mw)
}

// GetService exposes the connect service to sibling modules (the event
// mirror needs token and calendar access).
func GetService() service.ConnectServiceInterface {
	return svc
}
