package services

import (
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/lisho/deontolog-ia-feedback/internal/config"
)

var ErrLDAPDisabled = errors.New("LDAP is not enabled")

// LDAPService authenticates back-office users against a directory. Once a
// host is stored in system_configs those settings replace the YAML ldap
// section.
type LDAPService struct {
	configs  *SystemConfigService
	fallback *config.LDAPConfig
}

func NewLDAPService(configs *SystemConfigService, fallback *config.LDAPConfig) *LDAPService {
	return &LDAPService{configs: configs, fallback: fallback}
}

func (s *LDAPService) settings() config.LDAPConfig {
	var cfg config.LDAPConfig
	if s.fallback != nil {
		cfg = *s.fallback
	}
	if s.configs == nil {
		return cfg
	}
	stored := s.configs.GetLDAPConfig()
	if stored.Host == "" {
		return cfg
	}
	cfg.Enabled = stored.Enabled
	cfg.Host = stored.Host
	cfg.Port = stored.Port
	cfg.BaseDN = stored.BaseDN
	cfg.BindDN = stored.BindDN
	cfg.UserFilter = stored.UserFilter
	cfg.UseSSL = stored.UseSSL
	cfg.BindPassword = s.configs.GetWithDefault("ldap_bind_password", cfg.BindPassword)
	return cfg
}

func (s *LDAPService) IsEnabled() bool {
	return s.settings().Enabled
}

type LDAPUser struct {
	DN       string
	Username string
	Email    string
	Nickname string
}

// Authenticate binds as the user found by the configured filter.
func (s *LDAPService) Authenticate(username, password string) (*LDAPUser, error) {
	cfg := s.settings()
	if !cfg.Enabled {
		return nil, ErrLDAPDisabled
	}
	if password == "" {
		return nil, errors.New("invalid credentials")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var conn *ldap.Conn
	var err error
	if cfg.UseSSL {
		conn, err = ldap.DialURL("ldaps://"+addr, ldap.DialWithTLSConfig(&tls.Config{ServerName: cfg.Host}))
	} else {
		conn, err = ldap.DialURL("ldap://" + addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}
	defer conn.Close()

	if cfg.BindDN != "" {
		if err := conn.Bind(cfg.BindDN, cfg.BindPassword); err != nil {
			return nil, fmt.Errorf("failed to bind with service account: %w", err)
		}
	}

	filter := cfg.UserFilter
	if filter == "" {
		filter = "(uid=%s)"
	}
	result, err := conn.Search(ldap.NewSearchRequest(
		cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf(filter, ldap.EscapeFilter(username)),
		[]string{"dn", "cn", "mail", "uid", "sAMAccountName"},
		nil,
	))
	if err != nil {
		return nil, fmt.Errorf("LDAP search failed: %w", err)
	}
	switch len(result.Entries) {
	case 0:
		return nil, errors.New("user not found in LDAP")
	case 1:
	default:
		return nil, errors.New("multiple users found in LDAP")
	}

	entry := result.Entries[0]
	if err := conn.Bind(entry.DN, password); err != nil {
		return nil, errors.New("invalid credentials")
	}

	user := &LDAPUser{
		DN:       entry.DN,
		Username: entry.GetAttributeValue("uid"),
		Email:    entry.GetAttributeValue("mail"),
		Nickname: entry.GetAttributeValue("cn"),
	}
	if user.Username == "" {
		// Active Directory
		user.Username = entry.GetAttributeValue("sAMAccountName")
	}
	return user, nil
}
