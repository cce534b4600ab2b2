package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/DwamTech/nas-masr-sub000/internal/config"
	"github.com/DwamTech/nas-masr-sub000/internal/database"
	"github.com/DwamTech/nas-masr-sub000/internal/handlers"
	"github.com/DwamTech/nas-masr-sub000/internal/listing"
	"github.com/DwamTech/nas-masr-sub000/internal/query"
	"github.com/DwamTech/nas-masr-sub000/internal/ratelimit"
	"github.com/DwamTech/nas-masr-sub000/internal/scheduler"
	"github.com/DwamTech/nas-masr-sub000/internal/search"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

var (
	gormDB       *database.GormDB
	searchClient *search.SearchClient
	appConfig    *config.Config
	rateLimiter  *ratelimit.RateLimiter
	appScheduler *scheduler.Scheduler
	viewCounter  *query.ViewCounter
	listingSvc   *listing.Service
)

func main() {
	// .env is optional; real deployments use the config file.
	_ = godotenv.Load()

	// Load configuration
	configPath := getEnv("CONFIG_PATH", "/app/config/config.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Initialize database
	gormDB, err = database.NewGormDB(appConfig.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer gormDB.Close()

	if err := gormDB.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}
	log.Println("Database schema initialized")

	db := gormDB.DB()

	// Listing service and batched view counter
	listingSvc = listing.NewService(db, appConfig.Media.BaseURL)
	viewCounter = query.NewViewCounter(db, config.ViewFlushInterval)
	viewCounter.Start()
	defer viewCounter.Stop()

	// Initialize Meilisearch (optional)
	if appConfig.Search.Meilisearch.Enabled {
		searchClient = search.NewSearchClient(
			appConfig.Search.Meilisearch.Host,
			appConfig.Search.Meilisearch.APIKey,
		)
		if err := searchClient.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize search index: %v", err)
			searchClient = nil
		} else {
			listingSvc.SetIndexer(searchClient)
			log.Println("Meilisearch index initialized")
		}
	} else {
		log.Println("Meilisearch is disabled in configuration")
	}

	// Rate limiter for write endpoints
	rateLimiter = ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.Burst,
		appConfig.RateLimit.Enabled,
	)

	// Expiry sweep scheduler
	appScheduler = scheduler.NewScheduler(db, appConfig)
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	// Set up router
	r := setupRouter(db)

	port := appConfig.Server.Port
	if port == 0 {
		if n, err := strconv.Atoi(getEnv("PORT", "8080")); err == nil {
			port = n
		} else {
			port = 8080
		}
	}
	log.Printf("Starting server on port %d", port)
	if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(appConfig.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = appConfig.Server.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
	r.Use(cors.New(corsConfig))
	r.Use(requestIDMiddleware())

	listingHandler := handlers.NewListingHandler(db, listingSvc, viewCounter)
	categoryHandler := handlers.NewCategoryHandler(db)
	adminHandler := handlers.NewAdminHandler(db, appScheduler, searchClient, listingSvc)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/categories", categoryHandler.GetCategories)
		api.GET("/categories/:slug/schema", categoryHandler.GetCategorySchema)

		api.GET("/listings", listingHandler.GetListings)
		api.GET("/listings/:id", listingHandler.GetListing)
		api.POST("/listings", rateLimitMiddleware(), listingHandler.CreateListing)
		api.PUT("/listings/:id", rateLimitMiddleware(), listingHandler.UpdateListing)
		api.DELETE("/listings/:id", rateLimitMiddleware(), listingHandler.DeleteListing)
		api.POST("/listings/:id/promote", rateLimitMiddleware(), listingHandler.PromoteListing)

		api.GET("/search", searchHandler())

		admin := api.Group("/admin")
		{
			admin.POST("/categories", adminHandler.CreateCategory)
			admin.POST("/categories/:id/fields", adminHandler.UpsertField)
			admin.POST("/sweep/run", adminHandler.RunSweep)
			admin.GET("/stats", adminHandler.GetStats)
			admin.POST("/search/reindex", adminHandler.Reindex)
		}
	}

	return r
}

// searchHandler serves full-text search through Meilisearch when enabled.
func searchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if searchClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is not enabled"})
			return
		}

		params := search.FilterParams{Query: c.Query("q")}
		if v := c.Query("category_id"); v != "" {
			if id, err := strconv.ParseUint(v, 10, 32); err == nil {
				cid := uint(id)
				params.CategoryID = &cid
			}
		}
		if v := c.Query("price_min"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				params.MinPrice = &f
			}
		}
		if v := c.Query("price_max"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				params.MaxPrice = &f
			}
		}
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				params.Limit = n
			}
		}
		if v := c.Query("offset"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
				params.Offset = n
			}
		}

		if params.Limit == 0 {
			params.Limit = 20
		}

		docs, total, err := searchClient.FilterSearch(params)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"hits":   docs,
			"total":  total,
			"limit":  params.Limit,
			"offset": params.Offset,
		})
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rateLimiter.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
