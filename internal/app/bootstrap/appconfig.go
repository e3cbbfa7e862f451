// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level, and request limits. AppConfig is everything
// specific to the identity service: the Mongo connection, token signing,
// OTP policy, outbound mail, and the Google OAuth client.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer token signing
	JWTSecret string
	JWTTTL    time.Duration

	// One-time code lifetime (codes also drive password resets)
	OTPTTL time.Duration

	// Email/SMTP configuration
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// BaseURL is this service's public origin, used to build the OAuth
	// callback URL. FrontendURL is where browser-facing flows land.
	BaseURL     string
	FrontendURL string
}
