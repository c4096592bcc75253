package utils

import (
	"fmt"
	"time"
)

func SendWelcomeEmail(to, username string) error {
	subject := fmt.Sprintf("🎉 Welcome to PennyPilot, %s!", username)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
		<meta charset="UTF-8" />
		<meta name="viewport" content="width=device-width, initial-scale=1.0" />
		<title>Welcome to PennyPilot</title>
		<style>
			body {
				font-family: 'Segoe UI', Roboto, Arial, sans-serif;
				background-color: #f7f9fb;
				margin: 0;
				padding: 0;
			}
			.container {
				max-width: 620px;
				margin: 40px auto;
				background: #ffffff;
				border-radius: 14px;
				box-shadow: 0 8px 24px rgba(0, 0, 0, 0.08);
				overflow: hidden;
				border-top: 6px solid #1b4d8f;
			}
			.header {
				background-color: #1b4d8f;
				color: #ffffff;
				text-align: center;
				padding: 32px 20px;
			}
			.header h1 {
				margin: 0;
				font-size: 24px;
				font-weight: 700;
			}
			.content {
				padding: 30px 36px;
				color: #333333;
			}
			.greeting {
				font-size: 17px;
				font-weight: 600;
				margin-bottom: 12px;
			}
			.message {
				font-size: 15px;
				line-height: 1.8;
				color: #444444;
				margin-bottom: 14px;
			}
			.highlight {
				color: #1b4d8f;
				font-weight: 600;
			}
			ul {
				padding-left: 22px;
				margin: 8px 0 16px;
			}
			ul li {
				margin-bottom: 8px;
				font-size: 14.5px;
				color: #555555;
				line-height: 1.7;
			}
			.cta {
				margin: 30px 0;
				text-align: center;
			}
			.cta a {
				background-color: #1b4d8f;
				color: #ffffff;
				text-decoration: none;
				padding: 13px 32px;
				border-radius: 10px;
				font-weight: 600;
				font-size: 15px;
			}
			.footer {
				background: #f0f4f8;
				text-align: center;
				padding: 22px;
				font-size: 13px;
				color: #666666;
				border-top: 1px solid #e5e5e5;
			}
			.brand {
				color: #1b4d8f;
				font-weight: 600;
			}
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>Welcome to PennyPilot 🪙</h1>
			</div>
			<div class="content">
				<p class="greeting">Hey %s 👋,</p>

				<p class="message">
					We're <span class="highlight">thrilled</span> to have you on <span class="highlight">PennyPilot</span> — your co-pilot for everyday money: transactions, budgets, and spending insights in one place.
				</p>

				<p class="message">
					✨ <b>Here's what you can do with PennyPilot:</b>
				</p>
				<ul>
					<li>🧾 Record transactions and split them across categories.</li>
					<li>🎯 Set monthly or yearly budgets and watch them live.</li>
					<li>🗂️ Organize spending with your own color-coded categories.</li>
					<li>🚀 Upgrade to Plus or Premium whenever you're ready for more.</li>
				</ul>

				<div class="cta">
					<a href="https://pennypilot.app/login" target="_blank">Open Your Dashboard</a>
				</div>

				<p class="message" style="text-align:center;">
					Need a hand getting started? Just reply to this email 💙
				</p>
			</div>

			<div class="footer">
				&copy; %d <span class="brand">PennyPilot</span> — Every Penny, On Course.
			</div>
		</div>
	</body>
	</html>
	`, username, time.Now().Year())

	return SendEmail(to, subject, body)
}
