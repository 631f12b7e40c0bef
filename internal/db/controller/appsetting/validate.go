package appsetting

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gitforge-admin/gitforge-admin/internal/visibility"
)

const (
	msgInvalid   = "is invalid"
	msgNotInList = "is not included in the list"
	msgBlank     = "can't be blank"

	tagVisibility  = "visibility"
	tagCertificate = "x509_certificate"
	tagPrivateKey  = "private_key"
	tagKeyPair     = "key_pair"
	tagRequiredBy  = "required_by"
)

var (
	errNoCertificate  = errors.New("no certificate block")
	errNoPEMBlock     = errors.New("no pem block")
	errUnsupportedKey = errors.New("unsupported private key")
)

// Errors maps attribute names to messages.
type Errors map[string][]string

// Add appends a message for attribute.
func (e Errors) Add(attribute, message string) {
	e[attribute] = append(e[attribute], message)
}

// Any reports whether there is at least one error.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Full returns "attribute message" lines.
func (e Errors) Full() []string {
	out := make([]string, 0, len(e))

	for attr, msgs := range e {
		for _, m := range msgs {
			out = append(out, attr+" "+m)
		}
	}

	return out
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0] //nolint:mnd
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation(tagVisibility, func(fl validator.FieldLevel) bool { //nolint:errcheck // static tag
		return visibility.Level(fl.Field().Int()).Valid()
	})

	v.RegisterStructValidation(validateSettings, Settings{})

	return v
}

// validateSettings checks rules spanning several attributes.
func validateSettings(sl validator.StructLevel) {
	s, ok := sl.Current().Interface().(Settings)
	if !ok {
		return
	}

	if s.ExternalAuthorizationServiceEnabled {
		if s.ExternalAuthorizationServiceURL == "" {
			sl.ReportError(s.ExternalAuthorizationServiceURL, "external_authorization_service_url",
				"ExternalAuthorizationServiceURL", tagRequiredBy, "external_authorization_service_enabled")
		}

		if s.ExternalAuthorizationServiceDefaultLabel == "" {
			sl.ReportError(s.ExternalAuthorizationServiceDefaultLabel, "external_authorization_service_default_label",
				"ExternalAuthorizationServiceDefaultLabel", tagRequiredBy, "external_authorization_service_enabled")
		}
	}

	validateClientCert(sl, &s)

	if s.EKSIntegrationEnabled {
		for _, f := range []struct{ value, name, field string }{
			{s.EKSAccountID, "eks_account_id", "EKSAccountID"},
			{s.EKSAccessKeyID, "eks_access_key_id", "EKSAccessKeyID"},
			{s.EKSSecretAccessKey, "eks_secret_access_key", "EKSSecretAccessKey"},
		} {
			if f.value == "" {
				sl.ReportError(f.value, f.name, f.field, tagRequiredBy, "eks_integration_enabled")
			}
		}
	}
}

// validateClientCert requires certificate and key together and checks that they parse and match.
func validateClientCert(sl validator.StructLevel, s *Settings) {
	certPEM, keyPEM := strings.TrimSpace(s.ExternalAuthClientCert), strings.TrimSpace(s.ExternalAuthClientKey)

	switch {
	case certPEM == "" && keyPEM == "":
		return
	case certPEM == "":
		sl.ReportError(certPEM, "external_auth_client_cert", "ExternalAuthClientCert", tagRequiredBy, "external_auth_client_key")
		return
	case keyPEM == "":
		sl.ReportError(keyPEM, "external_auth_client_key", "ExternalAuthClientKey", tagRequiredBy, "external_auth_client_cert")
		return
	}

	certOK := parseCertificate(certPEM) == nil
	if !certOK {
		sl.ReportError(certPEM, "external_auth_client_cert", "ExternalAuthClientCert", tagCertificate, "")
	}

	plainKey, err := decryptPrivateKey(keyPEM, s.ExternalAuthClientKeyPass)
	if err != nil {
		sl.ReportError(keyPEM, "external_auth_client_key", "ExternalAuthClientKey", tagPrivateKey, "")
		return
	}

	if certOK {
		if _, err = tls.X509KeyPair([]byte(certPEM), plainKey); err != nil {
			sl.ReportError(keyPEM, "external_auth_client_key", "ExternalAuthClientKey", tagKeyPair, "")
		}
	}
}

func parseCertificate(certPEM string) error {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil || block.Type != "CERTIFICATE" {
		return errNoCertificate
	}

	_, err := x509.ParseCertificate(block.Bytes)

	return err
}

// decryptPrivateKey returns the unencrypted PEM of keyPEM, decrypting legacy
// encrypted PEM blocks with pass.
func decryptPrivateKey(keyPEM, pass string) ([]byte, error) {
	block, _ := pem.Decode([]byte(keyPEM))
	if block == nil {
		return nil, errNoPEMBlock
	}

	der := block.Bytes

	//nolint:staticcheck // legacy encrypted PEM keys are still accepted
	if x509.IsEncryptedPEMBlock(block) {
		var err error

		if der, err = x509.DecryptPEMBlock(block, []byte(pass)); err != nil {
			return nil, err
		}
	}

	if _, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}), nil
	}

	if _, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
	}

	if _, err := x509.ParseECPrivateKey(der); err == nil {
		return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
	}

	return nil, errUnsupportedKey
}

// message renders a validator error the way it is shown next to the form field.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof", tagVisibility:
		return msgNotInList
	case "url":
		return "must be a valid URL"
	case "email":
		return "is not a valid email address"
	case "numeric":
		return "must contain only digits"
	case "len":
		return "is the wrong length (should be " + fe.Param() + " characters)"
	case "min":
		return "is too short (minimum is " + fe.Param() + " characters)"
	case "max":
		return "is too long (maximum is " + fe.Param() + " characters)"
	case tagRequiredBy:
		return msgBlank
	case tagCertificate:
		return "must be a valid PEM encoded X.509 certificate"
	case tagPrivateKey:
		return "must be a valid PEM encoded private key"
	case tagKeyPair:
		return "does not match the client certificate"
	}

	return msgInvalid
}

// collect turns validator errors into Errors keyed by attribute name.
func collect(err error, into Errors) error {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	for _, fe := range ves {
		attr := fe.Field()
		if i := strings.IndexByte(attr, '['); i >= 0 {
			attr = attr[:i]
		}

		into.Add(attr, message(fe))
	}

	return nil
}
