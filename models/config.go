package models

// Config holds the database connection settings loaded from config.json.
// Redis and admin settings come from environment variables instead, see
// database.InitRedis and main.
type Config struct {
	DBHost     string `json:"db_host"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBName     string `json:"db_name"`
	DBSSLMode  string `json:"db_sslmode"`
}
