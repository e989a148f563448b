package identity

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliceURN = "urn:publicid:IDN+example.org+user+alice"

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestFindUserURN(t *testing.T) {
	tests := []struct {
		name   string
		sans   []SubjectAltName
		want   string
		wantOK bool
	}{
		{name: "no entries"},
		{
			name: "single URN",
			sans: []SubjectAltName{{Type: SANTypeURI, Value: aliceURN}},
			want: aliceURN, wantOK: true,
		},
		{
			name: "first matching URI wins",
			sans: []SubjectAltName{
				{Type: SANTypeURI, Value: "urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
				{Type: SANTypeURI, Value: aliceURN},
				{Type: SANTypeURI, Value: "urn:publicid:IDN+example.org+user+bob"},
			},
			want: aliceURN, wantOK: true,
		},
		{
			name: "prefix on non-URI type ignored",
			sans: []SubjectAltName{{Type: SANTypeEmail, Value: aliceURN}},
		},
		{
			name: "prefix must match from start",
			sans: []SubjectAltName{{Type: SANTypeURI, Value: "x-" + aliceURN}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindUserURN(tt.sans)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserURNFromCertificate(t *testing.T) {
	_, ok := UserURNFromCertificate(nil)
	assert.False(t, ok)

	cert := &x509.Certificate{
		DNSNames:       []string{"alice.example.org"},
		EmailAddresses: []string{"alice@example.org"},
		IPAddresses:    []net.IP{net.ParseIP("192.0.2.1")},
		URIs: []*url.URL{
			mustURL(t, "https://example.org/alice"),
			mustURL(t, aliceURN),
		},
	}

	urn, ok := UserURNFromCertificate(cert)
	require.True(t, ok)
	assert.Equal(t, aliceURN, urn)

	sans := SubjectAltNames(cert)
	require.Len(t, sans, 5)
	assert.Equal(t, SubjectAltName{Type: SANTypeIP, Value: "192.0.2.1"}, sans[2])
	assert.Equal(t, SubjectAltName{Type: SANTypeURI, Value: "https://example.org/alice"}, sans[3])
}

func TestUserURNFromCertificate_NoURN(t *testing.T) {
	cert := &x509.Certificate{DNSNames: []string{"host.example.org"}}
	_, ok := UserURNFromCertificate(cert)
	assert.False(t, ok)
}

func TestUserURNFromTLS(t *testing.T) {
	_, ok := UserURNFromTLS(nil)
	assert.False(t, ok)

	_, ok = UserURNFromTLS(&tls.ConnectionState{})
	assert.False(t, ok)

	leaf := &x509.Certificate{URIs: []*url.URL{mustURL(t, aliceURN)}}
	issuer := &x509.Certificate{URIs: []*url.URL{mustURL(t, "urn:publicid:IDN+example.org+authority+ca")}}
	urn, ok := UserURNFromTLS(&tls.ConnectionState{PeerCertificates: []*x509.Certificate{leaf, issuer}})
	require.True(t, ok)
	assert.Equal(t, aliceURN, urn)
}
