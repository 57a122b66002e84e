// Package mtls loads the X.509 client certificates the bank requires per
// product family and builds the mutual-TLS HTTP clients that carry them.
package mtls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
)

// CertRef points one product family at its certificate material on disk.
// Several families may reference the same files; the monitor groups by path,
// so adding an API that reuses a certificate needs no code change here.
type CertRef struct {
	Familia  string
	CertPath string
	KeyPath  string
	CAPath   string // optional; system roots when empty
}

// Store resolves certificate material per product family.
type Store struct {
	refs []CertRef
}

// NewStore creates a Store over the config-driven reference list.
func NewStore(refs []CertRef) *Store {
	return &Store{refs: refs}
}

// Ref returns the reference for a family.
func (s *Store) Ref(familia string) (CertRef, error) {
	for _, r := range s.refs {
		if r.Familia == familia {
			return r, nil
		}
	}
	return CertRef{}, &domain.ErrCertificate{Familia: familia, Err: errors.New("família não registrada")}
}

// Load reads and parses the client keypair and CA bundle for a family.
func (s *Store) Load(familia string) (tls.Certificate, *x509.CertPool, error) {
	ref, err := s.Ref(familia)
	if err != nil {
		return tls.Certificate{}, nil, err
	}

	cert, err := tls.LoadX509KeyPair(ref.CertPath, ref.KeyPath)
	if err != nil {
		return tls.Certificate{}, nil, &domain.ErrCertificate{Familia: familia, Path: ref.CertPath, Err: err}
	}

	var pool *x509.CertPool
	if ref.CAPath != "" {
		pem, err := os.ReadFile(ref.CAPath)
		if err != nil {
			return tls.Certificate{}, nil, &domain.ErrCertificate{Familia: familia, Path: ref.CAPath, Err: err}
		}
		pool = x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return tls.Certificate{}, nil, &domain.ErrCertificate{Familia: familia, Path: ref.CAPath, Err: errors.New("nenhum certificado CA válido no bundle")}
		}
	}

	return cert, pool, nil
}

// Records parses every registered certificate and derives its validity flags
// at the given instant. Certificates are grouped by path identity: one record
// per distinct file, its Familia field carrying every family that references
// it.
func (s *Store) Records(now time.Time) ([]domain.CertificateRecord, error) {
	byPath := make(map[string][]string)
	for _, r := range s.refs {
		byPath[r.CertPath] = append(byPath[r.CertPath], r.Familia)
	}

	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	records := make([]domain.CertificateRecord, 0, len(paths))
	for _, path := range paths {
		leaf, err := parseLeaf(path)
		if err != nil {
			return nil, &domain.ErrCertificate{Familia: strings.Join(byPath[path], ","), Path: path, Err: err}
		}

		daysLeft := int(leaf.NotAfter.Sub(now).Hours() / 24)
		records = append(records, domain.CertificateRecord{
			Familia:        strings.Join(byPath[path], ","),
			Path:           path,
			Subject:        leaf.Subject.String(),
			NotAfter:       leaf.NotAfter,
			IsExpired:      now.After(leaf.NotAfter),
			IsExpiringSoon: !now.After(leaf.NotAfter) && leaf.NotAfter.Sub(now) <= domain.ExpiryWarningWindow,
			DaysLeft:       daysLeft,
		})
	}

	return records, nil
}

// parseLeaf reads the first CERTIFICATE block in a PEM file.
func parseLeaf(path string) (*x509.Certificate, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	for {
		var block *pem.Block
		block, pemBytes = pem.Decode(pemBytes)
		if block == nil {
			return nil, errors.New("arquivo não contém certificado PEM")
		}
		if block.Type == "CERTIFICATE" {
			return x509.ParseCertificate(block.Bytes)
		}
	}
}
