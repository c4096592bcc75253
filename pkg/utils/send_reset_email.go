package utils

import (
	"fmt"
	"time"
)

// SendPasswordResetEmail sends a password reset email with a secure link.
func SendPasswordResetEmail(to, username, resetURL string, expiresAt time.Time) error {
	subject := "🔐 Reset Your PennyPilot Password"

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
		<meta charset="UTF-8" />
		<meta name="viewport" content="width=device-width, initial-scale=1.0" />
		<title>Password Reset</title>
		<style>
			body {
				font-family: 'Segoe UI', Roboto, Arial, sans-serif;
				background-color: #f5f7fa;
				margin: 0;
				padding: 0;
			}
			.container {
				max-width: 520px;
				margin: 40px auto;
				background: #ffffff;
				border-radius: 12px;
				box-shadow: 0 8px 24px rgba(0, 0, 0, 0.08);
				overflow: hidden;
				border-top: 5px solid #1b4d8f;
			}
			.header {
				background-color: #1b4d8f;
				color: #ffffff;
				text-align: center;
				padding: 24px 20px;
			}
			.header h1 {
				margin: 0;
				font-size: 22px;
				font-weight: 600;
			}
			.content {
				padding: 30px 35px;
				color: #333333;
			}
			.greeting {
				font-size: 16px;
				font-weight: 500;
				margin-bottom: 12px;
			}
			.message {
				font-size: 15px;
				line-height: 1.6;
				color: #555555;
			}
			.reset-btn {
				display: inline-block;
				background-color: #1b4d8f;
				color: #ffffff !important;
				text-decoration: none;
				font-size: 16px;
				font-weight: 600;
				padding: 12px 22px;
				border-radius: 8px;
				margin: 25px 0;
				text-align: center;
			}
			.footer {
				background: #f0f4f8;
				text-align: center;
				padding: 18px;
				font-size: 13px;
				color: #777777;
				border-top: 1px solid #e5e5e5;
			}
			.brand {
				color: #1b4d8f;
				font-weight: bold;
			}
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>Reset Your Password</h1>
			</div>
			<div class="content">
				<p class="greeting">Hello %s,</p>
				<p class="message">
					We received a request to reset your password. You can reset it by clicking the button below:
				</p>

				<div style="text-align: center;">
					<a href="%s" class="reset-btn">Reset Password</a>
				</div>

				<p class="message">
					This link will expire at <b>%s</b>. If you did not request a password reset, please ignore this email.
				</p>
			</div>
			<div class="footer">
				&copy; %d <span class="brand">PennyPilot</span> — Every Penny, On Course.
			</div>
		</div>
	</body>
	</html>
	`, username, resetURL, expiresAt.Format("3:04 PM, Jan 2 2006"), time.Now().Year())

	return SendEmail(to, subject, body)
}
