package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"prodexa/internal/auth"
	"prodexa/internal/db"
	"prodexa/internal/domain/storage"
	"prodexa/internal/media"
	"prodexa/internal/ratelimiter"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	// Default values
	defaultRequests := 200
	defaultEnabled := false

	// Retrieve request count with error handling
	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	// Retrieve enabled flag with error handling
	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	// Configure the encoder to be a console encoder with color
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	logger := zap.New(core)

	return logger.Sugar(), nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %d\n", key, fallback)
		return fallback
	}
	return parsed
}

var version = "1.0.0"

//	@title			Prodexa API
//	@description	Catalog admin API for products, categories, subcategories and wishlists.
//	@description	Product creation requires exactly 3 images; updates accept 0 to 3 slot uploads.

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath					/api
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Println("Error loading .env file:", err)
		return
	}

	cfg := config{
		addr:        getEnv("ADDR", ":8080"),
		env:         getEnv("ENV", "development"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		apiURL:      getEnv("EXTERNAL_URL", "localhost:8080"),
		dbDriver:    getEnv("DB_DRIVER", "mongo"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    int32(getEnvInt("DB_MAX_CONNS", 30)),
			maxIdleTime: getEnv("DB_MAX_IDLE_TIME", "15m"),
		},
		mongo: mongoConfig{
			uri:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			database: getEnv("MONGODB_DATABASE", "prodexa"),
		},
		media: mediaConfig{
			cloudinaryURL: os.Getenv("CLOUDINARY_URL"),
			folder:        getEnv("CLOUDINARY_FOLDER", "products"),
			uploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret: os.Getenv("AUTH_TOKEN_SECRET"),
				exp:    time.Hour * 24 * 7, // 7 days
				iss:    "prodexa",
				aud:    "prodexa",
			},
		},
		redis: redisConfig{
			addr: os.Getenv("REDIS_ADDR"),
			pw:   os.Getenv("REDIS_PW"),
			db:   getEnvInt("REDIS_DB", 0),
		},
		rateLimiter: LoadRateLimiterConfig(),
	}

	// Logger
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	if cfg.auth.token.secret == "" {
		logger.Fatal("AUTH_TOKEN_SECRET must be set")
	}

	// Database
	var store *storage.Container
	switch cfg.dbDriver {
	case "mongo":
		client, database, err := db.NewMongo(cfg.mongo.uri, cfg.mongo.database)
		if err != nil {
			logger.Fatal(err)
		}
		defer client.Disconnect(context.Background())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = storage.EnsureMongoIndexes(ctx, database)
		cancel()
		if err != nil {
			logger.Fatal(err)
		}
		logger.Infow("mongo connection established", "database", cfg.mongo.database)

		store = storage.NewMongoContainer(database)
	case "postgres":
		pool, err := db.New(cfg.db.addr, cfg.db.maxConns, cfg.db.maxIdleTime)
		if err != nil {
			logger.Fatal(err)
		}
		defer pool.Close()
		logger.Info("database connection pool established")

		expvar.Publish("database", expvar.Func(func() any {
			return pool.Stat().TotalConns()
		}))

		store = storage.NewPostgresContainer(pool)
	case "memory":
		logger.Warn("using in-memory storage, data is lost on restart")
		store = storage.NewMemoryContainer()
	default:
		logger.Fatalf("unknown DB_DRIVER %q", cfg.dbDriver)
	}

	// Image host
	var images media.Store
	if cfg.media.cloudinaryURL != "" {
		images, err = media.NewCloudinary(cfg.media.cloudinaryURL, cfg.media.folder)
	} else {
		logger.Infow("CLOUDINARY_URL not set, storing images on local disk", "dir", cfg.media.uploadDir)
		images, err = media.NewLocalDisk(cfg.media.uploadDir, localUploadsURL(cfg.apiURL))
	}
	if err != nil {
		logger.Fatal(err)
	}

	// Rate limiter
	var limiter ratelimiter.Limiter
	if cfg.redis.addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redis.addr,
			Password: cfg.redis.pw,
			DB:       cfg.redis.db,
		})
		defer rdb.Close()
		logger.Info("redis rate limiter enabled")

		limiter = ratelimiter.NewRedisLimiter(rdb, cfg.rateLimiter.RequestsPerTimeFrame, cfg.rateLimiter.TimeFrame)
	} else {
		limiter = ratelimiter.NewFixedWindowLimiter(
			cfg.rateLimiter.RequestsPerTimeFrame,
			cfg.rateLimiter.TimeFrame,
		)
	}

	// Authenticator
	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.aud,
		cfg.auth.token.iss,
		cfg.auth.token.exp,
	)

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         store,
		media:         images,
		authenticator: jwtAuthenticator,
		rateLimiter:   limiter,
	}

	//Metrics collected http://localhost:8080/api/debug/vars
	expvar.NewString("version").Set(version)
	expvar.NewString("storage").Set(cfg.dbDriver)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}

// localUploadsURL is the public prefix of files served from /uploads.
func localUploadsURL(apiURL string) string {
	base := strings.TrimRight(apiURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return base + "/uploads"
}
