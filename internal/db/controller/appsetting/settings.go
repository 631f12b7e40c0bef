// Package appsetting holds the deployment wide application settings record.
//
// The record is a singleton stored as one JSON document in the settings table.
// The first read creates it with defaults, including a fresh instance UUID and
// runner registration token.
package appsetting

import (
	"github.com/google/uuid"

	"github.com/gitforge-admin/gitforge-admin/internal/token"
	"github.com/gitforge-admin/gitforge-admin/internal/visibility"
)

// SettingKey is the name of the settings row holding the record.
const SettingKey = "application_settings"

// Project creation access codes.
const (
	ProjectCreationNoOne      = 0
	ProjectCreationMaintainer = 1
	ProjectCreationDeveloper  = 2
)

// Settings is the application settings record.
// The form tag names the attribute in forms and JSON updates; "-" marks attributes
// that can not be set that way.
type Settings struct {
	PasswordAuthenticationEnabledForWeb bool `json:"password_authentication_enabled_for_web" form:"password_authentication_enabled_for_web"`
	PasswordAuthenticationEnabledForGit bool `json:"password_authentication_enabled_for_git" form:"password_authentication_enabled_for_git"`
	SignupEnabled                       bool `json:"signup_enabled"                          form:"signup_enabled"`
	MinimumPasswordLength               int  `json:"minimum_password_length"                 form:"minimum_password_length" validate:"gte=8,lte=128"`

	DefaultProjectVisibility   visibility.Level   `json:"default_project_visibility"   form:"default_project_visibility"   validate:"visibility"`
	DefaultGroupVisibility     visibility.Level   `json:"default_group_visibility"     form:"default_group_visibility"     validate:"visibility"`
	RestrictedVisibilityLevels []visibility.Level `json:"restricted_visibility_levels" form:"restricted_visibility_levels" validate:"dive,visibility"`
	DefaultProjectCreation     int                `json:"default_project_creation"     form:"default_project_creation"     validate:"oneof=0 1 2"`

	ReceiveMaxInputSize               int `json:"receive_max_input_size"               form:"receive_max_input_size"               validate:"gte=0"`
	NamespaceStorageSizeLimit         int `json:"namespace_storage_size_limit"         form:"namespace_storage_size_limit"         validate:"gte=0"`
	RepositoryStoragesWeightedDefault int `json:"repository_storages_weighted_default" form:"repository_storages_weighted_default" validate:"gte=0,lte=100"`
	MaxAttachmentSize                 int `json:"max_attachment_size"                  form:"max_attachment_size"                  validate:"gte=1"`

	HomePageURL      string `json:"home_page_url"       form:"home_page_url"       validate:"omitempty,url"`
	AfterSignOutPath string `json:"after_sign_out_path" form:"after_sign_out_path" validate:"omitempty,url"`

	UsagePingEnabled    bool `json:"usage_ping_enabled"    form:"usage_ping_enabled"`
	VersionCheckEnabled bool `json:"version_check_enabled" form:"version_check_enabled"`

	AutoDevopsEnabled    bool   `json:"auto_devops_enabled"    form:"auto_devops_enabled"`
	SharedRunnersEnabled bool   `json:"shared_runners_enabled" form:"shared_runners_enabled"`
	SharedRunnersText    string `json:"shared_runners_text"    form:"shared_runners_text"    validate:"max=10000"`
	MaxArtifactsSize     int    `json:"max_artifacts_size"     form:"max_artifacts_size"     validate:"gte=1"`

	MetricsEnabled bool `json:"metrics_enabled" form:"metrics_enabled"`

	OutboundLocalRequestsAllowlist []string `json:"outbound_local_requests_allowlist" form:"outbound_local_requests_allowlist" validate:"max=1000,dive,max=255"`

	Terms        string `json:"terms"         form:"terms"`
	EnforceTerms bool   `json:"enforce_terms" form:"enforce_terms"`

	ExternalAuthorizationServiceEnabled      bool    `json:"external_authorization_service_enabled"       form:"external_authorization_service_enabled"`
	ExternalAuthorizationServiceURL          string  `json:"external_authorization_service_url"           form:"external_authorization_service_url"           validate:"omitempty,url"`
	ExternalAuthorizationServiceDefaultLabel string  `json:"external_authorization_service_default_label" form:"external_authorization_service_default_label" validate:"max=255"`
	ExternalAuthorizationServiceTimeout      float64 `json:"external_authorization_service_timeout"       form:"external_authorization_service_timeout"       validate:"gte=0.5,lte=10"`
	ExternalAuthClientCert                   string  `json:"external_auth_client_cert"                    form:"external_auth_client_cert"`
	ExternalAuthClientKey                    string  `json:"external_auth_client_key"                     form:"external_auth_client_key"`
	ExternalAuthClientKeyPass                string  `json:"external_auth_client_key_pass"                form:"external_auth_client_key_pass"`

	EKSIntegrationEnabled bool   `json:"eks_integration_enabled" form:"eks_integration_enabled"`
	EKSAccountID          string `json:"eks_account_id"          form:"eks_account_id"          validate:"omitempty,numeric,len=12"`
	EKSAccessKeyID        string `json:"eks_access_key_id"       form:"eks_access_key_id"       validate:"omitempty,min=16,max=128"`
	EKSSecretAccessKey    string `json:"eks_secret_access_key"   form:"eks_secret_access_key"`

	LetsEncryptNotificationEmail      string `json:"lets_encrypt_notification_email"       form:"lets_encrypt_notification_email" validate:"omitempty,email"`
	LetsEncryptTermsOfServiceAccepted bool   `json:"lets_encrypt_terms_of_service_accepted" form:"lets_encrypt_terms_of_service_accepted"`

	RunnersRegistrationToken string `json:"runners_registration_token" form:"-"`
	UUID                     string `json:"uuid"                       form:"-"`
}

// secretAttributes are never overwritten by blank submissions.
var secretAttributes = map[string]bool{ //nolint:gochecknoglobals
	"external_auth_client_key_pass": true,
	"eks_secret_access_key":         true,
}

// IsSecret reports whether attribute holds a secret.
func IsSecret(attribute string) bool {
	return secretAttributes[attribute]
}

// Defaults returns a new record with default values, a random instance UUID
// and a new runner registration token.
func Defaults() (*Settings, error) {
	tok, err := token.RunnerRegistration()
	if err != nil {
		return nil, err
	}

	return &Settings{
		PasswordAuthenticationEnabledForWeb: true,
		PasswordAuthenticationEnabledForGit: true,
		SignupEnabled:                       true,
		MinimumPasswordLength:               8,
		DefaultProjectVisibility:            visibility.Private,
		DefaultGroupVisibility:              visibility.Private,
		RestrictedVisibilityLevels:          []visibility.Level{},
		DefaultProjectCreation:              ProjectCreationDeveloper,
		RepositoryStoragesWeightedDefault:   100,
		MaxAttachmentSize:                   10,
		UsagePingEnabled:                    true,
		VersionCheckEnabled:                 true,
		AutoDevopsEnabled:                   true,
		SharedRunnersEnabled:                true,
		MaxArtifactsSize:                    100,
		OutboundLocalRequestsAllowlist:      []string{},
		ExternalAuthorizationServiceTimeout: 0.5,
		RunnersRegistrationToken:            tok,
		UUID:                                uuid.NewString(),
	}, nil
}

// Clone returns a deep copy.
func (s *Settings) Clone() *Settings {
	out := *s
	out.RestrictedVisibilityLevels = append([]visibility.Level{}, s.RestrictedVisibilityLevels...)
	out.OutboundLocalRequestsAllowlist = append([]string{}, s.OutboundLocalRequestsAllowlist...)

	return &out
}

// Redacted returns a copy without secret values, suitable for API responses.
func (s *Settings) Redacted() *Settings {
	out := s.Clone()
	out.ExternalAuthClientKeyPass = ""
	out.EKSSecretAccessKey = ""

	return out
}

// IsRestricted reports whether users without admin rights may not use level.
func (s *Settings) IsRestricted(level visibility.Level) bool {
	for _, l := range s.RestrictedVisibilityLevels {
		if l == level {
			return true
		}
	}

	return false
}
