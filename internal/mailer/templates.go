package mailer

import "text/template"

// Transactional email bodies. Kept deliberately small; styling lives in the
// client application, not here.
var (
	welcomeTemplate = template.Must(template.New("welcome").Parse(`<div style="font-family:sans-serif">
  <h2>Welcome!</h2>
  <p>Your account has been created with the email id: <b>{{.Email}}</b>.</p>
</div>`))

	verifyOTPTemplate = template.Must(template.New("verify_otp").Parse(`<div style="font-family:sans-serif">
  <h2>Verify your account</h2>
  <p>Your verification code for <b>{{.Email}}</b> is:</p>
  <p style="font-size:24px;letter-spacing:4px"><b>{{.OTP}}</b></p>
  <p>Use this code to verify your account. It expires in 24 hours.</p>
</div>`))

	resetOTPTemplate = template.Must(template.New("reset_otp").Parse(`<div style="font-family:sans-serif">
  <h2>Password reset</h2>
  <p>Your password reset code for <b>{{.Email}}</b> is:</p>
  <p style="font-size:24px;letter-spacing:4px"><b>{{.OTP}}</b></p>
  <p>Use this code to reset your password. It expires in 15 minutes.</p>
</div>`))
)

type templateData struct {
	Email string
	OTP   string
}
