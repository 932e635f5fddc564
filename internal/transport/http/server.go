package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "docforge/internal/app"
	"docforge/internal/bootstrap"
	"docforge/internal/repository"
	"docforge/internal/template"
	"docforge/internal/transport/http/handler"
	"docforge/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	docRepo := repository.NewDocumentRepository(app.MySQL)
	varRepo := repository.NewDocumentVariableRepository(app.MySQL)
	templateRepo := repository.NewTemplateRepository(app.MySQL)
	typeRepo := repository.NewDocumentTypeRepository(app.MySQL)
	messageRepo := repository.NewChatMessageRepository(app.MySQL)

	documentService := appsvc.NewDocumentService(
		docRepo, varRepo, app.Files, app.Publisher, app.Agents, app.InsightsCache,
	)
	templateService := template.NewService(templateRepo, app.Agents, app.Searcher)
	chatService := appsvc.NewChatService(messageRepo, docRepo, app.Agents, app.HistoryCache)

	authHandler := handler.NewAuthHandler(
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	documentHandler := handler.NewDocumentHandler(documentService)
	templateHandler := handler.NewTemplateHandler(templateService, app.Extractor)
	chatHandler := handler.NewChatHandler(chatService)
	docTypeHandler := handler.NewDocTypeHandler(typeRepo)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/token", authHandler.Token)

	secured := v1.Group("")
	secured.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))

	secured.POST("/documents", documentHandler.Upload)
	secured.GET("/documents", documentHandler.List)
	secured.GET("/documents/:id/status", documentHandler.Status)
	secured.GET("/documents/:id/insights", documentHandler.Insights)
	secured.GET("/documents/:id/fields", documentHandler.Fields)
	secured.PATCH("/documents/:id/fields", documentHandler.UpdateField)
	secured.POST("/documents/:id/query", documentHandler.Query)
	secured.DELETE("/documents/:id", documentHandler.Delete)
	secured.GET("/documents/:id/variables", documentHandler.ListVariables)
	secured.POST("/documents/:id/variables", documentHandler.CreateVariable)
	secured.PATCH("/documents/:id/variables/:variableId", documentHandler.UpdateVariable)
	secured.DELETE("/documents/:id/variables/:variableId", documentHandler.DeleteVariable)

	secured.GET("/templates", templateHandler.List)
	secured.GET("/templates/:id", templateHandler.Get)
	secured.POST("/templates", templateHandler.Create)
	secured.POST("/templates/upload", templateHandler.Upload)
	secured.POST("/templates/find", templateHandler.Find)
	secured.POST("/templates/fill", templateHandler.Fill)
	secured.POST("/templates/prefill", templateHandler.Prefill)
	secured.POST("/templates/questions", templateHandler.Questions)

	secured.GET("/chat/history", chatHandler.History)
	secured.POST("/chat/messages", chatHandler.SendMessage)
	secured.DELETE("/chat/history", chatHandler.ClearHistory)

	secured.GET("/document-types", docTypeHandler.List)
	secured.POST("/document-types", docTypeHandler.Create)
	secured.PATCH("/document-types/:id/fields", docTypeHandler.UpdateFields)

	return router
}
