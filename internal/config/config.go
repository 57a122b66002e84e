package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CertEntry maps one product family to its certificate material.
type CertEntry struct {
	Familia  string
	CertPath string
	KeyPath  string
	CAPath   string // optional
}

// CredentialEntry holds the OAuth client for one product family.
type CredentialEntry struct {
	ClientID     string
	ClientSecret string
	Scope        string
}

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Bank endpoints
	TokenURL          string
	AppKey            string
	CobrancaBaseURL   string
	PagamentosBaseURL string
	PixBaseURL        string

	// Ambiente: "producao" lets the bank assign Nosso Número; anything else
	// (homologacao, dev) generates it locally.
	Ambiente string

	// PixJanelaMax caps the date range of received-PIX queries, in days.
	PixJanelaMax int

	// Per-family OAuth credentials and certificates.
	Credentials map[string]CredentialEntry
	Certs       []CertEntry

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Observability
	OTLPEndpoint string

	// PostgREST-backed persistence
	PostgrestURL string
	PostgrestKey string
	UsePostgrest bool

	// JWT / Auth
	JWTSecret     string
	WebhookSecret string

	// Notification collaborator; empty logs instead of posting.
	NotifyURL string

	// Certificate monitor: local hour of the daily run.
	MonitorHour int
}

// Familia names used across config, certificates and credentials.
const (
	FamiliaCobranca   = "cobranca"
	FamiliaPagamentos = "pagamentos"
	FamiliaPix        = "pix"
)

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		TokenURL:          getEnv("BB_TOKEN_URL", "https://oauth.bb.com.br/oauth/token"),
		AppKey:            getEnv("BB_APP_KEY", ""),
		CobrancaBaseURL:   getEnv("BB_COBRANCA_URL", "https://api.bb.com.br/cobrancas/v2"),
		PagamentosBaseURL: getEnv("BB_PAGAMENTOS_URL", "https://api.bb.com.br/pagamentos-lote/v1"),
		PixBaseURL:        getEnv("BB_PIX_URL", "https://api.bb.com.br/pix/v2"),

		Ambiente:     getEnv("BB_AMBIENTE", "homologacao"),
		PixJanelaMax: getEnvInt("BB_PIX_JANELA_MAX", 4),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		PostgrestURL: getEnv("POSTGREST_URL", ""),
		PostgrestKey: getEnv("POSTGREST_SERVICE_KEY", ""),
		UsePostgrest: getEnv("USE_POSTGREST", "true") == "true",

		JWTSecret:     getEnv("JWT_SECRET", "cobranca-default-dev-secret-change-me"),
		WebhookSecret: getEnv("WEBHOOK_SHARED_SECRET", ""),

		NotifyURL: getEnv("NOTIFY_WEBHOOK_URL", ""),

		MonitorHour: getEnvInt("CERT_MONITOR_HOUR", 6),
	}

	certs, err := parseCerts(getEnv("BB_CERTIFICADOS", ""))
	if err != nil {
		return nil, err
	}
	cfg.Certs = certs

	cfg.Credentials = map[string]CredentialEntry{}
	for _, familia := range []string{FamiliaCobranca, FamiliaPagamentos, FamiliaPix} {
		prefix := "BB_" + strings.ToUpper(familia)
		cfg.Credentials[familia] = CredentialEntry{
			ClientID:     getEnv(prefix+"_CLIENT_ID", ""),
			ClientSecret: getEnv(prefix+"_CLIENT_SECRET", ""),
			Scope:        getEnv(prefix+"_SCOPE", ""),
		}
	}

	return cfg, nil
}

// Producao reports whether the bank environment is production. In production
// the bank assigns Nosso Número; elsewhere we generate it locally.
func (c *Config) Producao() bool {
	return c.Ambiente == "producao"
}

// parseCerts decodes BB_CERTIFICADOS:
//
//	familia=cert.pem:key.pem[:ca.pem][,familia2=...]
func parseCerts(raw string) ([]CertEntry, error) {
	if raw == "" {
		return nil, nil
	}
	var entries []CertEntry
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		familia, paths, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("BB_CERTIFICADOS: entrada inválida %q", item)
		}
		parts := strings.Split(paths, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("BB_CERTIFICADOS: entrada inválida %q (esperado cert:key[:ca])", item)
		}
		entry := CertEntry{
			Familia:  strings.TrimSpace(familia),
			CertPath: strings.TrimSpace(parts[0]),
			KeyPath:  strings.TrimSpace(parts[1]),
		}
		if len(parts) == 3 {
			entry.CAPath = strings.TrimSpace(parts[2])
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
