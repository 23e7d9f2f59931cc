package mail

import (
	"bytes"
	"html/template"
)

var confirmTmpl = template.Must(template.New("verify_email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <h2>Hello, {{.Username}}!</h2>
  <p>Thank you for registering. Please confirm your email address by clicking the link below:</p>
  <p><a href="{{.Host}}api/auth/confirmed_email/{{.Token}}">Confirm email</a></p>
  <p>The link is valid for 7 days. If you did not register, ignore this message.</p>
</body>
</html>
`))

var resetTmpl = template.Must(template.New("reset_password").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <h2>Hello, {{.Username}}!</h2>
  <p>We received a request to reset your password. Use the link below to choose a new one:</p>
  <p><a href="{{.Host}}reset-password?token={{.Token}}">Reset password</a></p>
  <p>The link expires in 1 hour. If you did not ask for a reset, you can ignore this email.</p>
</body>
</html>
`))

type templateData struct {
	Username string
	Host     string
	Token    string
}

func render(t *template.Template, d templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
