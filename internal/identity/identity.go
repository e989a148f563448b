// Package identity derives the user identifier from the peer certificate
// presented during the TLS handshake.
package identity

import (
	"crypto/tls"
	"crypto/x509"
	"strings"

	"github.com/geni/gdpr-consent-api/internal/models"
)

// Subject alternative name types, named as they appear in a parsed certificate
const (
	SANTypeDNS   = "DNS"
	SANTypeEmail = "email"
	SANTypeIP    = "IP Address"
	SANTypeURI   = "URI"
)

// SubjectAltName is one (type, value) entry of a certificate's subjectAltName
type SubjectAltName struct {
	Type  string
	Value string
}

// SubjectAltNames lists the alternative names of cert. The x509 parser keeps
// entries grouped by type, so the relative order is only preserved within a type.
func SubjectAltNames(cert *x509.Certificate) []SubjectAltName {
	if cert == nil {
		return nil
	}

	sans := make([]SubjectAltName, 0, len(cert.DNSNames)+len(cert.EmailAddresses)+len(cert.IPAddresses)+len(cert.URIs))
	for _, name := range cert.DNSNames {
		sans = append(sans, SubjectAltName{Type: SANTypeDNS, Value: name})
	}
	for _, email := range cert.EmailAddresses {
		sans = append(sans, SubjectAltName{Type: SANTypeEmail, Value: email})
	}
	for _, ip := range cert.IPAddresses {
		sans = append(sans, SubjectAltName{Type: SANTypeIP, Value: ip.String()})
	}
	for _, uri := range cert.URIs {
		if uri == nil {
			continue
		}
		sans = append(sans, SubjectAltName{Type: SANTypeURI, Value: uri.String()})
	}
	return sans
}

// FindUserURN returns the value of the first URI entry that carries a user URN
func FindUserURN(sans []SubjectAltName) (string, bool) {
	for _, san := range sans {
		if san.Type == SANTypeURI && strings.HasPrefix(san.Value, models.UserURNPrefix) {
			return san.Value, true
		}
	}
	return "", false
}

// UserURNFromCertificate extracts the user URN from a parsed certificate
func UserURNFromCertificate(cert *x509.Certificate) (string, bool) {
	if cert == nil {
		return "", false
	}
	return FindUserURN(SubjectAltNames(cert))
}

// UserURNFromTLS extracts the user URN from the leaf certificate of the peer
func UserURNFromTLS(state *tls.ConnectionState) (string, bool) {
	if state == nil || len(state.PeerCertificates) == 0 {
		return "", false
	}
	return UserURNFromCertificate(state.PeerCertificates[0])
}
