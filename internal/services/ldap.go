package services

import (
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/projectflow/backend/internal/config"
)

var errLDAPCredentials = errors.New("invalid LDAP credentials")

// Directory verifies credentials against an external user directory.
type Directory interface {
	Enabled() bool
	Authenticate(email, password string) (*LDAPUser, error)
}

type LDAPService struct {
	config *config.LDAPConfig
}

func NewLDAPService(cfg *config.LDAPConfig) *LDAPService {
	return &LDAPService{config: cfg}
}

func (s *LDAPService) Enabled() bool {
	return s.config != nil && s.config.Enabled
}

// Authenticate looks the user up by email with the service account, then
// binds as that user to verify the password.
func (s *LDAPService) Authenticate(email, password string) (*LDAPUser, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("LDAP is not enabled")
	}
	if password == "" {
		return nil, errLDAPCredentials
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var (
		conn *ldap.Conn
		err  error
	)
	if s.config.UseSSL {
		conn, err = ldap.DialURL("ldaps://"+addr, ldap.DialWithTLSConfig(&tls.Config{ServerName: s.config.Host}))
	} else {
		conn, err = ldap.DialURL("ldap://" + addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}
	defer conn.Close()

	if s.config.BindDN != "" {
		if err := conn.Bind(s.config.BindDN, s.config.BindPassword); err != nil {
			return nil, fmt.Errorf("failed to bind with service account: %w", err)
		}
	}

	filter := s.config.UserFilter
	if filter == "" {
		filter = "(mail=%s)"
	}
	searchRequest := ldap.NewSearchRequest(
		s.config.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 2, 0, false,
		fmt.Sprintf(filter, ldap.EscapeFilter(email)),
		[]string{"dn", "cn", "displayName", "mail"},
		nil,
	)

	result, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("LDAP search failed: %w", err)
	}
	switch len(result.Entries) {
	case 0:
		return nil, errLDAPCredentials
	case 1:
	default:
		return nil, fmt.Errorf("multiple LDAP entries match %s", email)
	}

	entry := result.Entries[0]
	if err := conn.Bind(entry.DN, password); err != nil {
		return nil, errLDAPCredentials
	}

	user := &LDAPUser{
		DN:       entry.DN,
		Email:    entry.GetAttributeValue("mail"),
		FullName: entry.GetAttributeValue("displayName"),
	}
	if user.Email == "" {
		user.Email = email
	}
	if user.FullName == "" {
		user.FullName = entry.GetAttributeValue("cn")
	}
	return user, nil
}

type LDAPUser struct {
	DN       string
	Email    string
	FullName string
}
