package router

import (
	"github.com/caiwilliamson/octopub/internal/config"
	"github.com/caiwilliamson/octopub/internal/handler"
	"github.com/caiwilliamson/octopub/internal/middleware"
	"github.com/caiwilliamson/octopub/internal/repository"
	"github.com/caiwilliamson/octopub/internal/service"
	"github.com/caiwilliamson/octopub/internal/utils"
	"github.com/caiwilliamson/octopub/pkg/event_notifier"
	"github.com/caiwilliamson/octopub/pkg/repo_client"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetupRouter 设置路由
// 返回引擎和发布任务管理器，worker池的生命周期由调用方控制
func SetupRouter(
	cfg *config.Config,
	jwtManager *utils.JWTManager,
	logger *logrus.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) (*gin.Engine, *service.PublishManager) {
	// 设置Gin模式
	if cfg.Server.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg))

	// 健康检查
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "数据集发布平台 API",
			"version": "1.0.0",
		})
	})

	// 初始化Repository
	userRepo := repository.NewUserRepository(db)
	datasetRepo := repository.NewDatasetRepository(db)
	schemaRepo := repository.NewSchemaRepository(db)
	schemaModelRepo := repository.NewSchemaModelRepository(db)
	errorRepo := repository.NewErrorRepository(db)
	jobRepo := repository.NewJobRepository(db)

	// 初始化Service
	authService := service.NewAuthService(userRepo, jwtManager, cfg)
	schemaService := service.NewSchemaService(schemaRepo, schemaModelRepo, cfg.Publishing.GetSchemaTimeout())
	datasetService := service.NewDatasetService(datasetRepo, userRepo, schemaService)

	repoClient := repo_client.NewClient(cfg.RepoHost.BaseURL, cfg.RepoHost.GetTimeout())
	repoPublisher := service.NewRepoPublisher(service.NewRepoStore(repoClient))
	notifier := event_notifier.NewNotifier(redisClient, "")
	aggregator := service.NewErrorAggregator(errorRepo)
	jekyllService := service.NewJekyllService()

	publishManager := service.NewPublishManager(
		datasetRepo,
		userRepo,
		jobRepo,
		aggregator,
		schemaService,
		repoPublisher,
		jekyllService,
		notifier,
		redisClient,
		cfg.Publishing.QueueSize,
	)

	// 初始化Handler
	authHandler := handler.NewAuthHandler(authService)
	datasetHandler := handler.NewDatasetHandler(datasetService, publishManager, errorRepo)
	schemaHandler := handler.NewSchemaHandler(schemaService)
	modelHandler := handler.NewModelHandler(schemaService)
	jobHandler := handler.NewJobHandler(publishManager, redisClient)
	adminHandler := handler.NewAdminHandler(userRepo, datasetRepo, errorRepo)

	// API路由组
	api := r.Group("/api")
	{
		// 公开路由
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.GET("/licences", datasetHandler.GetLicences)
		api.GET("/frequencies", datasetHandler.GetFrequencies)

		// 认证路由
		authorized := api.Group("")
		authorized.Use(middleware.AuthMiddleware(jwtManager))
		{
			// 用户信息
			authorized.GET("/me", authHandler.GetMe)
			authorized.PUT("/me/repo_token", authHandler.UpdateRepoToken)

			// 数据集管理
			authorized.POST("/datasets", datasetHandler.CreateDataset)
			authorized.GET("/datasets", datasetHandler.ListDatasets)
			authorized.GET("/datasets/:id", datasetHandler.GetDataset)
			authorized.POST("/datasets/:id/files", datasetHandler.AddFiles)
			authorized.POST("/datasets/:id/publish", datasetHandler.RetryPublish)
			authorized.GET("/datasets/:id/errors", datasetHandler.GetDatasetErrors)

			// 发布任务
			authorized.GET("/jobs/:job_id", jobHandler.GetJobStatus)
			authorized.GET("/jobs/:job_id/events", jobHandler.GetJobEvents)
			authorized.GET("/jobs/:job_id/progress", jobHandler.GetJobProgress)

			// 文件schema管理
			authorized.POST("/dataset_file_schemas", schemaHandler.RegisterSchema)
			authorized.GET("/dataset_file_schemas", schemaHandler.ListSchemas)
			authorized.GET("/dataset_file_schemas/:id", schemaHandler.GetSchema)
			authorized.DELETE("/dataset_file_schemas/:id", schemaHandler.DeleteSchema)

			// schema草稿管理
			authorized.POST("/schema_models", modelHandler.CreateSchemaModel)
			authorized.GET("/schema_models", modelHandler.ListSchemaModels)
			authorized.GET("/schema_models/:id", modelHandler.GetSchemaModel)
			authorized.PUT("/schema_models/:id", modelHandler.UpdateSchemaModel)
			authorized.DELETE("/schema_models/:id", modelHandler.DeleteSchemaModel)
			authorized.POST("/schema_models/:id/publish", modelHandler.PublishSchemaModel)

			// 管理员接口
			adminGroup := authorized.Group("/admin")
			adminGroup.Use(middleware.AdminMiddleware())
			{
				adminGroup.GET("/users", adminHandler.ListUsers)
				adminGroup.PUT("/users/:id/active", adminHandler.SetUserActive)
				adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)

				adminGroup.GET("/datasets", adminHandler.ListAllDatasets)
				adminGroup.DELETE("/datasets/:id", adminHandler.DeleteDataset)

				adminGroup.GET("/stats", adminHandler.GetStats)
			}
		}
	}

	return r, publishManager
}
