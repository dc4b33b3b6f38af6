package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  string
		valid bool
	}{
		{"plain", "John@Acme.com", "john@acme.com", true},
		{"mailto prefix", "mailto:sales@acme.com", "sales@acme.com", true},
		{"angle brackets", "<jane@acme.com>", "jane@acme.com", true},
		{"trailing punctuation", "jane@acme.com,", "jane@acme.com", true},
		{"brackets then punctuation", "<john@x.com>.", "john@x.com", true},
		{"punctuation inside brackets", "<john@x.com.>", "john@x.com", true},
		{"nested trailers", "<jane@acme.com>;,", "jane@acme.com", true},
		{"whitespace", "  bob@acme.io  ", "bob@acme.io", true},
		{"missing tld", "bob@acme", "", false},
		{"missing local", "@acme.com", "", false},
		{"not an email", "Jane Doe", "", false},
		{"empty", "", "", false},
		{"double at", "a@b@acme.com", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Email(tt.raw)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompanyName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Acme, Inc.", "acme inc"},
		{"  ACME  INC ", "acme inc"},
		{"Acme-Corp (Holdings)", "acme corp holdings"},
		{"acme", "acme"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompanyName(tt.raw), "raw=%q", tt.raw)
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.acme.com/about?x=1", "acme.com"},
		{"http://acme.com", "acme.com"},
		{"WWW.Acme.Com", "acme.com"},
		{"acme.com/", "acme.com"},
		{"mail.acme.co.uk", "mail.acme.co.uk"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Domain(tt.raw), "raw=%q", tt.raw)
	}
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "acme.com", EmailDomain("Jane@Acme.com"))
	assert.Equal(t, "", EmailDomain("not-an-email"))
}

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"acme.com", "acme.com"},
		{"mail.acme.com", "acme.com"},
		{"a.b.mail.acme.com", "acme.com"},
		{"mail.sub.example.co.uk", "example.co.uk"},
		{"example.co.uk", "example.co.uk"},
		{"acme.io", "acme.io"},
		{"sub.acme.io", "acme.io"},
		// Two-char apex but unknown second-level label: last two labels win.
		{"sub.acme.xy", "acme.xy"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RegistrableDomain(tt.domain), "domain=%q", tt.domain)
	}
}

func TestDomainCandidates(t *testing.T) {
	assert.Equal(t,
		[]string{"mail.acme.com", "acme.com", "www.acme.com"},
		DomainCandidates("mail.acme.com"))

	// Already registrable: normalized and registrable collapse.
	assert.Equal(t,
		[]string{"acme.com", "www.acme.com"},
		DomainCandidates("https://www.acme.com"))

	assert.Nil(t, DomainCandidates(""))
}
