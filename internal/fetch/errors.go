package fetch

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
)

// IsCertificateError reports whether a transport error was caused by TLS
// certificate verification. Fetches failing this way are skipped silently by
// the consumer rather than surfaced.
func IsCertificateError(err error) bool {
	if err == nil {
		return false
	}
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var invalidErr x509.CertificateInvalidError
	return errors.As(err, &invalidErr)
}
