package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port                string
	MongoURI            string
	MongoDatabase       string
	JaegerAddress       string
	ServiceName         string
	Currency            string
	PaystackBaseURL     string
	PaystackSecretKey   string
	EFTBankName         string
	EFTAccountName      string
	EFTAccountNumber    string
	EFTBranchCode       string
	MaxPaymentRetries   int
	PriceDriftThreshold float64
}

func GetConfig() Config {
	return Config{
		Port:                envOr("PORT", "8086"),
		MongoURI:            os.Getenv("MONGO_DB_URI"),
		MongoDatabase:       envOr("MONGO_DB_NAME", "booking"),
		JaegerAddress:       os.Getenv("JAEGER_ADDRESS"),
		ServiceName:         "booking-service",
		Currency:            envOr("CURRENCY", "ZAR"),
		PaystackBaseURL:     envOr("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackSecretKey:   os.Getenv("PAYSTACK_SECRET_KEY"),
		EFTBankName:         os.Getenv("EFT_BANK_NAME"),
		EFTAccountName:      os.Getenv("EFT_ACCOUNT_NAME"),
		EFTAccountNumber:    os.Getenv("EFT_ACCOUNT_NUMBER"),
		EFTBranchCode:       os.Getenv("EFT_BRANCH_CODE"),
		MaxPaymentRetries:   envOrInt("MAX_PAYMENT_RETRIES", 3),
		PriceDriftThreshold: envOrFloat("PRICE_DRIFT_THRESHOLD", 1),
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

func envOrInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}

	return fallback
}

func envOrFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}

	return fallback
}
