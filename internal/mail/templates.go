package mail

import "html/template"

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<html>
  <body style="font-family: Arial, sans-serif; color: #333;">
    <table style="max-width: 600px; margin: 0 auto; padding: 20px; background: #f9f9f9; border-radius: 8px;">
      <tr>
        <td>
          <h1 style="text-align: center; color: #4C6EB1;">Welcome, {{.Name}}!</h1>
          <p style="font-size: 16px;">Thank you for signing up for the <strong>Data Marketplace</strong>.</p>
          <p style="font-size: 16px;">You can now unlock datasets, collaborate, and explore the catalog.</p>
          <p style="font-size: 16px;">Your account email is <strong>{{.Email}}</strong>.</p>
          <p style="text-align: center; margin-top: 30px;">
            <a href="{{.LoginURL}}" style="background-color: #4C6EB1; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Go to Login</a>
          </p>
          <p style="font-size: 12px; text-align: center; margin-top: 20px;">If you did not sign up, please ignore this email.</p>
        </td>
      </tr>
    </table>
  </body>
</html>`))

var resetTmpl = template.Must(template.New("reset").Parse(`<html>
  <body style="font-family: Arial, sans-serif; background-color: #f7f8fa; color: #333;">
    <table role="presentation" style="width: 100%; max-width: 600px; margin: 0 auto; background-color: #ffffff; padding: 30px; border-radius: 8px;">
      <tr>
        <td style="text-align: center;">
          <h1 style="color: #4C6EB1; font-size: 30px;">Password Reset Request</h1>
          <p style="font-size: 16px; color: #666666;">We received a request to reset your password. The link below is valid for one hour and can be used once.</p>
          <p><a href="{{.ResetURL}}" style="display: inline-block; background-color: #4C6EB1; color: #ffffff; padding: 15px 40px; text-decoration: none; border-radius: 5px; font-weight: bold;">Reset Your Password</a></p>
          <p style="font-size: 14px; color: #888888;">If you did not request a password reset, please ignore this email. Your password will not be changed.</p>
        </td>
      </tr>
    </table>
  </body>
</html>`))
