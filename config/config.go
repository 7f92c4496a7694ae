package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Backend names accepted in AUTH_BACKEND.
const (
	BackendMongo  = "mongodb"
	BackendSheets = "sheets"
)

type Config struct {
	ServerPort  int
	Env         string
	AuthBackend string
	Mongo       MongoConfig
	Sheets      SheetsConfig
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	mongoConfig := MongoConfig{
		URI:        getEnv("MONGODB_URI", ""),
		Database:   getEnv("MONGODB_DB", "raycity"),
		Collection: getEnv("MONGODB_COLLECTION", "users"),
	}

	sheetsConfig := SheetsConfig{
		SpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetName:       getEnv("SHEETS_SHEET_NAME", "users"),
		CredentialsFile: getEnv("SHEETS_CREDENTIALS_FILE", ""),
	}

	return Config{
		ServerPort:  getEnvInt("SERVER_PORT", 8080),
		Env:         getEnv("ENV", ""),
		AuthBackend: getEnv("AUTH_BACKEND", ""),
		Mongo:       mongoConfig,
		Sheets:      sheetsConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}
