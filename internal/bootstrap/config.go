package bootstrap

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string

	GeminiAPIKey  string
	GeminiBaseURL string
	GroqAPIKey    string
	GroqBaseURL   string

	CameraBaseURL string
	ServoBaseURL  string

	FrameTTL       time.Duration
	ContextTTL     time.Duration
	AcquireTimeout time.Duration

	ChunkTarget       int
	ChunkOverlap      int
	RetrievalTopK     int
	RetrievalMinScore float64
	QAHistoryTurns    int

	VideoSampleInterval time.Duration

	SMSAccountSID    string
	SMSAuthToken     string
	SMSBaseURL       string
	EmergencySMSFrom string
	EmergencySMSTo   string
	IPInfoToken      string

	FaceImageDir string

	EmbeddingModel string
	VisionModel    string
	SynthesisModel string
	OCRModel       string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerAddr: ":" + getEnv("PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		QdrantHost:   getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:   getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GroqAPIKey:    getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:   getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),

		CameraBaseURL: getEnv("CAMERA_BASE_URL", "http://localhost:8000"),
		ServoBaseURL:  getEnv("SERVO_BASE_URL", "http://localhost:8001"),

		FrameTTL:       time.Duration(getEnvInt("FRAME_TTL_SECONDS", 60)) * time.Second,
		ContextTTL:     time.Duration(getEnvInt("CONTEXT_TTL_SECONDS", 120)) * time.Second,
		AcquireTimeout: time.Duration(getEnvInt("ACQUIRE_TIMEOUT_SECONDS", 5)) * time.Second,

		ChunkTarget:       getEnvInt("CHUNK_TARGET", 500),
		ChunkOverlap:      getEnvInt("CHUNK_OVERLAP", 50),
		RetrievalTopK:     getEnvInt("RETRIEVAL_TOP_K", 5),
		RetrievalMinScore: getEnvFloat("RETRIEVAL_MIN_SCORE", 0.35),
		QAHistoryTurns:    getEnvInt("QA_HISTORY_TURNS", 4),

		VideoSampleInterval: time.Duration(getEnvInt("VIDEO_SAMPLE_SECONDS", 6)) * time.Second,

		SMSAccountSID:    getEnv("SMS_ACCOUNT_SID", ""),
		SMSAuthToken:     getEnv("SMS_AUTH_TOKEN", ""),
		SMSBaseURL:       getEnv("SMS_BASE_URL", "https://api.twilio.com"),
		EmergencySMSFrom: getEnv("EMERGENCY_SMS_FROM", ""),
		EmergencySMSTo:   getEnv("EMERGENCY_SMS_TO", ""),
		IPInfoToken:      getEnv("IPINFO_TOKEN", ""),

		FaceImageDir: getEnv("FACE_IMAGE_DIR", "known_faces"),

		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		VisionModel:    getEnv("VISION_MODEL", "gemini-1.5-flash"),
		SynthesisModel: getEnv("SYNTHESIS_MODEL", "gemini-1.5-pro"),
		OCRModel:       getEnv("OCR_MODEL", "llama-3.2-11b-vision-preview"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
