package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	AppName            string
	ServerPort         int
	LogLevel           string
	CORSAllowedOrigins []string

	DatabaseURL string
	RedisURL    string

	JWTSecret          string
	TokenExpiryMinutes int
	AdminUsername      string

	WSReceiveTimeout time.Duration
	StatsInterval    time.Duration
	WardrobeCacheTTL time.Duration
	CatalogCacheTTL  time.Duration

	CatalogImportPath string

	// CategoryNames maps source catalog slugs to display names. Items
	// whose category slug is not listed here keep the raw slug.
	CategoryNames map[string]string
}

// Load reads configuration from environment variables. A .env file in
// the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	tokenExpiry, err := strconv.Atoi(getEnv("ACCESS_TOKEN_EXPIRE_MINUTES", "1440"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
	}

	receiveTimeout, err := strconv.Atoi(getEnv("WS_RECEIVE_TIMEOUT_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_RECEIVE_TIMEOUT_SECONDS: %w", err)
	}

	statsInterval, err := strconv.Atoi(getEnv("STATS_INTERVAL_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_INTERVAL_SECONDS: %w", err)
	}

	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		AppName:            getEnv("APP_NAME", "Wardrobe Manager"),
		ServerPort:         port,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ORIGINS", []string{"http://localhost:3000"}),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:          getEnv("SECRET_KEY", ""),
		TokenExpiryMinutes: tokenExpiry,
		AdminUsername:      getEnv("ADMIN_USERNAME", "Micos"),
		WSReceiveTimeout:   time.Duration(receiveTimeout) * time.Second,
		StatsInterval:      time.Duration(statsInterval) * time.Second,
		WardrobeCacheTTL:   30 * time.Second,
		CatalogCacheTTL:    5 * time.Minute,
		CatalogImportPath:  getEnv("CATALOG_IMPORT_PATH", "data/raw.txt"),
		CategoryNames:      defaultCategoryNames(),
	}, nil
}

// defaultCategoryNames groups source catalog slugs under display names.
// Several distinct slugs intentionally share one display name.
func defaultCategoryNames() map[string]string {
	return map[string]string{
		"obuv":                "Обувь",
		"plata":               "Платья",
		"jeans":               "Джинсы",
		"bruki":               "Брюки",
		"ankle-boots":         "Ботильоны",
		"cardigans-2":         "Кардиганы",
		"sweaters":            "Свитеры",
		"verhnaa-odezda-sale": "Верхняя одежда",
		"ubki":                "Юбки",
		"t-shirts2":           "Футболки",
		"sneakers":            "Кроссовки",
		"sweatshirts2":        "Свитшоты",
		"longsleevetop":       "Лонгсливы",
		"sweatshirts":         "Свитшоты",
		"top":                 "Топы",
		"mules":               "Мюли",
		"aksessuary":          "Аксессуары",
		"zakety":              "Пиджаки",
		"shirts":              "Рубашки",
		"t-shirts":            "Футболки",
		"bags":                "Сумки",
		"verhnaa-odezda":      "Верхняя одежда",
		"boots":               "Ботинки",
		"sapki":               "Головные уборы",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
