package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aletheon/config"
	"aletheon/models"
	"aletheon/providers"
	"aletheon/providers/harvardart"
	"aletheon/providers/openrouter"
	"aletheon/providers/smithsonian"
	"aletheon/services"
	"aletheon/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	artifactsCataloguedCounter prometheus.Counter
	imageUploadsFailedCounter  prometheus.Counter
)

func init() {
	artifactsCataloguedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "artifacts_catalogued_total",
			Help: "Total number of artifacts catalogued through the analysis pipeline.",
		},
	)
	imageUploadsFailedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "artifact_image_uploads_failed_total",
			Help: "Total number of artifact image uploads that were skipped.",
		},
	)
	prometheus.MustRegister(artifactsCataloguedCounter, imageUploadsFailedCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to catalog database.")

	logging.Info("Running database auto-migration...")
	db.AutoMigrate(&models.Artifact{}, &models.ArtifactImage{})

	// Setup Katalog-Provider
	enabledProviderNames := strings.Split(cfg.EnabledProviders, ",")
	var catalogProviders []providers.CatalogProvider
	for _, name := range enabledProviderNames {
		switch strings.TrimSpace(name) {
		case "harvardart":
			catalogProviders = append(catalogProviders, harvardart.NewFetcher(cfg, logging))
		case "smithsonian":
			catalogProviders = append(catalogProviders, smithsonian.NewFetcher(cfg, logging))
		default:
			logging.Warn("Unknown provider in config", zap.String("provider_name", name))
		}
	}
	if len(catalogProviders) == 0 {
		logging.Fatal("No valid catalog providers enabled. Check ENABLED_PROVIDERS in .env")
	}
	logging.Info("Active catalog providers loaded", zap.Strings("providers", enabledProviderNames))

	// Setup Services
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}
	bucket := storage.NewBucket(s3Client, cfg)
	aiClient := openrouter.NewClient(cfg, logging)
	analysisService := services.NewAnalysisService(cfg, services.NewGormStore(db), bucket, aiClient, catalogProviders, logging)
	catalogService, err := services.NewCatalogService(db, cfg.CatalogCacheSize, logging)
	if err != nil {
		logging.Fatal("Catalog cache creation failed", zap.Error(err))
	}

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "aletheon"})
	})

	// Setup Routes
	setupAnalysisRoutes(router, analysisService, logging)
	setupDiscoveryRoutes(router, analysisService)
	setupArtifactRoutes(router, db, catalogService, logging)
	setupAtlasRoutes(router, db, logging)
	setupCatalogRoutes(router, catalogService, logging)

	// Setup Cron: Katalog-Cache regelmäßig gegen die DB abgleichen
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.ReconcileSchedule, func() {
		refreshed, err := catalogService.Reconcile()
		if err != nil {
			logging.Error("Catalog reconciliation failed", zap.Error(err))
		} else {
			logging.Info("Catalog reconciliation completed", zap.Int("refreshed", refreshed))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// setupAnalysisRoutes konfiguriert den Analyse-Endpunkt der Pipeline.
func setupAnalysisRoutes(router *gin.Engine, analysisService *services.AnalysisService, log *zap.Logger) {
	rg := router.Group("/analysis")

	rg.POST("/", func(c *gin.Context) {
		var input models.AnalysisInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		result, err := analysisService.Analyze(c.Request.Context(), input)
		if err != nil {
			if errors.Is(err, services.ErrNoImages) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "No images provided", "details": err.Error()})
				return
			}
			log.Error("Analysis pipeline failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis Protocol Failed", "details": err.Error()})
			return
		}

		artifactsCataloguedCounter.Inc()
		imageUploadsFailedCounter.Add(float64(len(result.ImagesFailed)))

		// Bericht inklusive image_url des ersten erfolgreich hochgeladenen Bildes
		type reportResponse struct {
			models.ReportPayload
			ImageURL string `json:"image_url,omitempty"`
		}
		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"artifactId":      result.ArtifactID,
			"report":          reportResponse{ReportPayload: result.Report, ImageURL: result.ImageURL},
			"images_attached": result.ImagesAttached,
			"images_failed":   result.ImagesFailed,
		})
	})
}

// setupDiscoveryRoutes konfiguriert die Katalog-Freitextsuche.
func setupDiscoveryRoutes(router *gin.Engine, analysisService *services.AnalysisService) {
	rg := router.Group("/discovery")

	rg.GET("/search", func(c *gin.Context) {
		query := c.DefaultQuery("q", "archaeology")
		params := providers.SearchParams{
			Keywords: strings.Fields(query),
			Material: c.Query("material"),
			Culture:  c.Query("culture"),
		}
		results := analysisService.CrossReference(c.Request.Context(), params)
		c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
	})
}

// setupArtifactRoutes konfiguriert die Vault-/Archiv-Endpunkte.
func setupArtifactRoutes(router *gin.Engine, db *gorm.DB, catalogService *services.CatalogService, log *zap.Logger) {
	rg := router.Group("/artifacts")

	rg.GET("/", func(c *gin.Context) {
		query := db.Model(&models.Artifact{})

		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if region := c.Query("region"); region != "" {
			query = query.Where("region = ?", region)
		}
		if owner := c.Query("owner"); owner != "" {
			query = query.Where("owner_id = ?", owner)
		}
		if limitStr := c.Query("limit"); limitStr != "" {
			if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
				query = query.Limit(limit)
			}
		}

		var artifacts []models.Artifact
		if err := query.Order("created_at desc").Find(&artifacts).Error; err != nil {
			log.Error("Database query for artifacts failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, artifacts)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id := c.Param("id")
		var artifact models.Artifact
		if err := db.Preload("Images").First(&artifact, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
				return
			}
			log.Error("DB error fetching artifact", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, artifact)
	})

	// Partielles Update für Dashboard-Flows (z.B. Statuswechsel durch Kuratoren)
	rg.PATCH("/:id", func(c *gin.Context) {
		id := c.Param("id")

		var artifact models.Artifact
		if err := db.First(&artifact, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
				return
			}
			log.Error("DB error checking for artifact on PATCH", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var payload struct {
			Title           *string `json:"title"`
			Status          *string `json:"status"`
			Region          *string `json:"region"`
			Era             *string `json:"era"`
			Material        *string `json:"material"`
			ExcavationNotes *string `json:"excavation_notes"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		updates := map[string]interface{}{}
		if payload.Title != nil {
			updates["title"] = *payload.Title
		}
		if payload.Status != nil {
			if !models.ValidStatus(*payload.Status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status", "details": "must be one of stable|critical|pending"})
				return
			}
			updates["status"] = *payload.Status
		}
		if payload.Region != nil {
			updates["region"] = *payload.Region
		}
		if payload.Era != nil {
			updates["era"] = *payload.Era
		}
		if payload.Material != nil {
			updates["material"] = *payload.Material
		}
		if payload.ExcavationNotes != nil {
			updates["excavation_notes"] = *payload.ExcavationNotes
		}
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
			return
		}

		if err := db.Model(&artifact).Updates(updates).Error; err != nil {
			log.Error("DB error updating artifact", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update artifact"})
			return
		}

		// Cache-Eintrag ist jetzt veraltet
		catalogService.Invalidate(id)

		c.JSON(http.StatusOK, gin.H{"message": "updated fields", "updates": updates})
	})
}

// setupAtlasRoutes konfiguriert die Kartendaten für die Atlas-Ansicht.
func setupAtlasRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/atlas")

	rg.GET("/markers", func(c *gin.Context) {
		type marker struct {
			ID        string   `json:"id"`
			Title     string   `json:"title"`
			Status    string   `json:"status"`
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		}
		var markers []marker
		err := db.Model(&models.Artifact{}).
			Where("latitude IS NOT NULL AND longitude IS NOT NULL").
			Order("created_at desc").
			Find(&markers).Error
		if err != nil {
			log.Error("Database query for atlas markers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "markers": markers})
	})
}

// setupCatalogRoutes konfiguriert die gecachten Katalog-Kurzfassungen.
func setupCatalogRoutes(router *gin.Engine, catalogService *services.CatalogService, log *zap.Logger) {
	rg := router.Group("/catalog")

	rg.GET("/", func(c *gin.Context) {
		limit := 0
		if limitStr := c.Query("limit"); limitStr != "" {
			limit, _ = strconv.Atoi(limitStr)
		}
		entries, err := catalogService.Recent(limit)
		if err != nil {
			log.Error("Catalog listing failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "entries": entries})
	})

	rg.GET("/:id", func(c *gin.Context) {
		entry, err := catalogService.Get(c.Param("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
				return
			}
			log.Error("Catalog lookup failed", zap.String("id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, entry)
	})
}
