package appsettings

import (
	"strconv"

	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/appsetting"
	"github.com/gitforge-admin/gitforge-admin/internal/visibility"
)

// Input kinds understood by the panel template.
const (
	KindBool     = "bool"
	KindNumber   = "number"
	KindText     = "text"
	KindTextarea = "textarea"
	KindPassword = "password"
	KindSelect   = "select"
	KindLevels   = "levels"
	KindList     = "list"
)

// Option is one choice of a select input.
type Option struct {
	Value string
	Label string
}

// Field is one attribute input.
type Field struct {
	Name    string
	Label   string
	Kind    string
	Help    string
	Options []Option
}

// Section groups the fields of a panel.
type Section struct {
	Title  string
	Fields []Field
}

// Panel is one settings page.
type Panel struct {
	Name     string
	Title    string
	Sections []Section
}

func levelOptions() []Option {
	out := make([]Option, 0, len(visibility.Levels()))
	for _, l := range visibility.Levels() {
		out = append(out, Option{Value: strconv.Itoa(int(l)), Label: l.Title()})
	}

	return out
}

//nolint:gochecknoglobals,mnd
var projectCreationOptions = []Option{
	{Value: strconv.Itoa(appsetting.ProjectCreationNoOne), Label: "No one"},
	{Value: strconv.Itoa(appsetting.ProjectCreationMaintainer), Label: "Maintainers"},
	{Value: strconv.Itoa(appsetting.ProjectCreationDeveloper), Label: "Developers + Maintainers"},
}

// panels lists the settings pages in menu order.
//
//nolint:gochecknoglobals
var panels = []Panel{
	{
		Name:  "general",
		Title: "General",
		Sections: []Section{
			{Title: "Visibility and access controls", Fields: []Field{
				{Name: "default_project_visibility", Label: "Default project visibility", Kind: KindSelect, Options: levelOptions()},
				{Name: "default_group_visibility", Label: "Default group visibility", Kind: KindSelect, Options: levelOptions()},
				{
					Name: "restricted_visibility_levels", Label: "Restricted visibility levels", Kind: KindLevels,
					Help: "Selected levels can not be used by non-admin users.", Options: levelOptions(),
				},
				{Name: "default_project_creation", Label: "Default project creation protection", Kind: KindSelect, Options: projectCreationOptions},
			}},
			{Title: "Account and limit", Fields: []Field{
				{Name: "max_attachment_size", Label: "Maximum attachment size (MiB)", Kind: KindNumber},
				{Name: "receive_max_input_size", Label: "Maximum push size (MiB)", Kind: KindNumber, Help: "0 for unlimited."},
				{Name: "namespace_storage_size_limit", Label: "Namespace storage size limit (MiB)", Kind: KindNumber, Help: "0 for unlimited."},
			}},
			{Title: "Sign-up restrictions", Fields: []Field{
				{Name: "signup_enabled", Label: "Sign-up enabled", Kind: KindBool},
				{Name: "minimum_password_length", Label: "Minimum password length", Kind: KindNumber},
			}},
			{Title: "Sign-in restrictions", Fields: []Field{
				{Name: "password_authentication_enabled_for_web", Label: "Password authentication enabled for web interface", Kind: KindBool},
				{Name: "password_authentication_enabled_for_git", Label: "Password authentication enabled for Git over HTTP(S)", Kind: KindBool},
				{Name: "home_page_url", Label: "Home page URL", Kind: KindText},
				{Name: "after_sign_out_path", Label: "After sign-out path", Kind: KindText},
			}},
			{Title: "External authorization", Fields: []Field{
				{Name: "external_authorization_service_enabled", Label: "Enable classification control using an external service", Kind: KindBool},
				{Name: "external_authorization_service_url", Label: "Service URL", Kind: KindText},
				{Name: "external_authorization_service_default_label", Label: "Default classification label", Kind: KindText},
				{Name: "external_authorization_service_timeout", Label: "External authorization request timeout (seconds)", Kind: KindNumber},
				{Name: "external_auth_client_cert", Label: "Client authentication certificate", Kind: KindTextarea},
				{Name: "external_auth_client_key", Label: "Client authentication key", Kind: KindTextarea},
				{
					Name: "external_auth_client_key_pass", Label: "Client authentication key password", Kind: KindPassword,
					Help: "Leave blank to keep the stored password.",
				},
			}},
		},
	},
	{
		Name:  "integrations",
		Title: "Integrations",
		Sections: []Section{
			{Title: "Amazon EKS", Fields: []Field{
				{Name: "eks_integration_enabled", Label: "Enable Amazon EKS integration", Kind: KindBool},
				{Name: "eks_account_id", Label: "Account ID", Kind: KindText},
				{Name: "eks_access_key_id", Label: "Access key ID", Kind: KindText},
				{Name: "eks_secret_access_key", Label: "Secret access key", Kind: KindPassword, Help: "Leave blank to keep the stored key."},
			}},
		},
	},
	{
		Name:  "repository",
		Title: "Repository",
		Sections: []Section{
			{Title: "Repository storage", Fields: []Field{
				{Name: "repository_storages_weighted_default", Label: "Storage weight of the default storage", Kind: KindNumber},
			}},
		},
	},
	{
		Name:  "ci_cd",
		Title: "CI/CD",
		Sections: []Section{
			{Title: "Continuous Integration and Deployment", Fields: []Field{
				{Name: "auto_devops_enabled", Label: "Default to Auto DevOps pipeline for all projects", Kind: KindBool},
				{Name: "shared_runners_enabled", Label: "Enable shared runners for new projects", Kind: KindBool},
				{Name: "shared_runners_text", Label: "Shared runners details", Kind: KindTextarea},
				{Name: "max_artifacts_size", Label: "Maximum artifacts size (MiB)", Kind: KindNumber},
			}},
		},
	},
	{
		Name:  "reporting",
		Title: "Reporting",
		Sections: []Section{
			{Title: "Terms of Service and Privacy Policy", Fields: []Field{
				{Name: "enforce_terms", Label: "All users must accept the Terms of Service", Kind: KindBool},
				{Name: "terms", Label: "Terms of Service Agreement", Kind: KindTextarea},
			}},
		},
	},
	{
		Name:  "metrics_and_profiling",
		Title: "Metrics and profiling",
		Sections: []Section{
			{Title: "Metrics", Fields: []Field{
				{Name: "metrics_enabled", Label: "Enable Prometheus metrics", Kind: KindBool},
			}},
			{Title: "Usage statistics", Fields: []Field{
				{Name: "version_check_enabled", Label: "Enable version check", Kind: KindBool},
				{Name: "usage_ping_enabled", Label: "Enable usage ping", Kind: KindBool},
			}},
		},
	},
	{
		Name:  "network",
		Title: "Network",
		Sections: []Section{
			{Title: "Outbound requests", Fields: []Field{
				{
					Name: "outbound_local_requests_allowlist", Label: "Local IP addresses and domain names that hooks and integrations can access",
					Kind: KindList,
				},
			}},
		},
	},
	{
		Name:  "preferences",
		Title: "Preferences",
		Sections: []Section{
			{Title: "Let's Encrypt", Fields: []Field{
				{Name: "lets_encrypt_notification_email", Label: "Email", Kind: KindText},
				{Name: "lets_encrypt_terms_of_service_accepted", Label: "I have read and agree to the Let's Encrypt Terms of Service", Kind: KindBool},
			}},
		},
	},
}

// findPanel returns the panel called name.
func findPanel(name string) (Panel, bool) {
	for _, p := range panels {
		if p.Name == name {
			return p, true
		}
	}

	return Panel{}, false
}
