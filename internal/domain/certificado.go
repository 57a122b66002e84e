package domain

import "time"

// ============================================================
// Certificados mTLS
// ============================================================

// ExpiryWarningWindow is how far ahead of NotAfter a certificate is
// considered "expiring soon".
const ExpiryWarningWindow = 30 * 24 * time.Hour

// CertificateRecord is derived at check time from the certificate store; it
// is never persisted.
type CertificateRecord struct {
	Familia        string    `json:"familia"` // product family that references the certificate
	Path           string    `json:"path"`
	Subject        string    `json:"subject"`
	NotAfter       time.Time `json:"not_after"`
	IsExpired      bool      `json:"is_expired"`
	IsExpiringSoon bool      `json:"is_expiring_soon"`
	DaysLeft       int       `json:"days_left"`
}

// CertificateCheckReport aggregates one monitor run. Certificates are grouped
// by identity (path), with the families that reference each one.
type CertificateCheckReport struct {
	CheckedAt time.Time           `json:"checked_at"`
	DryRun    bool                `json:"dry_run"`
	Records   []CertificateRecord `json:"records"`
	Expired   int                 `json:"expired"`
	Expiring  int                 `json:"expiring"`
}

// Notification severities used by the certificate monitor.
const (
	SeverityHigh = "HIGH"
	SeverityInfo = "INFO"
)

// Notification event names.
const (
	EventCertificateExpiry = "certificado.expiracao"
	EventMonitorError      = "certificado.monitor_erro"
)

// Notification is the payload handed to the external notification
// collaborator.
type Notification struct {
	Event    string         `json:"event"`
	Severity string         `json:"severity"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
	At       time.Time      `json:"at"`
}
