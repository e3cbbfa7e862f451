// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// OTPEmailData holds data for the one-time-code email templates.
type OTPEmailData struct {
	FullName  string
	Code      string
	ExpiresIn string // e.g., "10 minutes"
}

// WelcomeEmailData holds data for the post-verification welcome email.
type WelcomeEmailData struct {
	FullName string
}

// BuildRegistrationEmail creates the OTP email sent right after signup.
func BuildRegistrationEmail(data OTPEmailData) Email {
	return Email{
		Subject:  "Welcome to Covertly : Confirm Your Registration",
		TextBody: buildOTPText("Confirm your registration with the code below.", data),
		HTMLBody: buildOTPHTML("Confirm Your Registration", data),
	}
}

// BuildForgotPasswordEmail creates the OTP email for a password reset request.
func BuildForgotPasswordEmail(data OTPEmailData) Email {
	return Email{
		Subject:  "Password reset email",
		TextBody: buildOTPText("Use the code below to reset your password.", data),
		HTMLBody: buildOTPHTML("Reset Your Password", data),
	}
}

// BuildResendOTPEmail creates the OTP email sent when a fresh code is
// requested for a pending verification.
func BuildResendOTPEmail(data OTPEmailData) Email {
	return Email{
		Subject:  "Welcome to Covertly : Resend OTP  Email Sent!",
		TextBody: buildOTPText("Here is your new verification code.", data),
		HTMLBody: buildOTPHTML("Your New Verification Code", data),
	}
}

// BuildAccountLinkingEmail creates the OTP email sent when a social login
// lands on an existing unlinked account and the user must confirm ownership.
func BuildAccountLinkingEmail(data OTPEmailData) Email {
	return Email{
		Subject:  "Welcome to Covertly : Confirm Your Email",
		TextBody: buildOTPText("Confirm your email to link your accounts with the code below.", data),
		HTMLBody: buildOTPHTML("Confirm Your Email", data),
	}
}

// BuildWelcomeEmail creates the email sent once an account is verified.
func BuildWelcomeEmail(data WelcomeEmailData) Email {
	return Email{
		Subject:  "Welcome to Covertly : Registered Successfully",
		TextBody: buildWelcomeText(data),
		HTMLBody: buildWelcomeHTML(data),
	}
}

func buildOTPText(lead string, data OTPEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.FullName))
	buf.WriteString(lead + "\n\n")
	buf.WriteString(fmt.Sprintf("Your code is: %s\n\n", data.Code))
	buf.WriteString(fmt.Sprintf("This code expires in %s.\n\n", data.ExpiresIn))
	buf.WriteString("If you did not request this code, you can safely ignore this email.\n")
	return buf.String()
}

func buildOTPHTML(heading string, data OTPEmailData) string {
	tmpl := template.Must(template.New("otp").Parse(otpHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, struct {
		Heading string
		OTPEmailData
	}{Heading: heading, OTPEmailData: data})
	return buf.String()
}

func buildWelcomeText(data WelcomeEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.FullName))
	buf.WriteString("Your email has been verified and your Covertly account is ready.\n\n")
	buf.WriteString("You can now sign in and get started.\n")
	return buf.String()
}

func buildWelcomeHTML(data WelcomeEmailData) string {
	tmpl := template.Must(template.New("welcome").Parse(welcomeHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const otpHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Heading}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">Covertly</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 8px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.FullName}},
              </p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                {{.Heading}} with the code below:
              </p>

              <!-- Code Box -->
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 24px; text-align: center; margin-bottom: 24px;">
                <span style="font-size: 32px; font-weight: 700; letter-spacing: 8px; color: #1f2937; font-family: 'Courier New', monospace;">{{.Code}}</span>
              </div>

              <p style="margin: 0; font-size: 13px; color: #9ca3af; text-align: center;">
                This code expires in {{.ExpiresIn}}.
              </p>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                If you did not request this code, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const welcomeHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Welcome</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">Covertly</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 8px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.FullName}},
              </p>
              <p style="margin: 0; font-size: 16px; color: #374151; line-height: 1.5;">
                Your email has been verified and your account is ready. You can now sign in and get started.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
