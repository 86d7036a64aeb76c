package config

import "os"

// Config collects every environment-driven setting in one place so the
// rest of the code never touches os.Getenv directly.
type Config struct {
	Port              string
	DBDSN             string
	RedisAddr         string
	ProductServiceURL string
	JWTSecret         string
}

// Load reads the environment (after main has loaded .env) and applies
// the same defaults the docker-compose setup uses.
func Load() Config {
	return Config{
		Port:              getEnv("PORT", "8080"),
		DBDSN:             getEnv("DB_DSN", ""),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		ProductServiceURL: getEnv("PRODUCT_SERVICE_URL", "http://product-service:3002"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
