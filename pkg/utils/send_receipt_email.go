package utils

import (
	"fmt"
	"time"
)

func SendSubscriptionReceiptEmail(to, username, tier, amount string, periodEnd time.Time) error {
	subject := fmt.Sprintf("💳 Your PennyPilot %s Subscription Is Active", tier)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Subscription Receipt</title>
	<style>
		body {
			font-family: 'Segoe UI', Roboto, Arial, sans-serif;
			background-color: #f6f8fb;
			margin: 0;
			padding: 0;
			color: #333;
		}
		.container {
			max-width: 480px;
			margin: 25px auto;
			background: #ffffff;
			border-radius: 12px;
			box-shadow: 0 4px 16px rgba(0, 0, 0, 0.08);
			overflow: hidden;
			border-top: 5px solid #1b4d8f;
		}
		.header {
			background-color: #1b4d8f;
			color: #ffffff;
			text-align: center;
			padding: 18px 12px;
		}
		.header h1 {
			margin: 0;
			font-size: 18px;
			font-weight: 600;
		}
		.content {
			padding: 20px 18px;
		}
		.message {
			font-size: 14px;
			line-height: 1.6;
			color: #444;
		}
		.amount-box {
			background: #f2f7fd;
			border: 1px solid #bfd6ea;
			border-radius: 8px;
			padding: 12px 14px;
			margin: 16px 0;
			text-align: center;
		}
		.amount-box h3 {
			margin: 0;
			color: #1b4d8f;
			font-size: 16px;
			font-weight: 700;
		}
		.amount-box p {
			margin: 6px 0 0;
			font-size: 13px;
			color: #555;
		}
		.footer {
			background: #f0f4f8;
			text-align: center;
			padding: 14px;
			font-size: 12px;
			color: #777;
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
				<h1>Subscription Confirmed 🎉</h1>
			</div>
			<div class="content">
				<p class="message">
					Hi %s,<br><br>
					Thanks for upgrading! Your <b>%s</b> subscription is now active and all its features are unlocked.
				</p>

				<div class="amount-box">
					<h3>$%s Charged</h3>
					<p>Plan: %s</p>
					<p>Renews: %s</p>
				</div>

				<p class="message">
					You can manage your plan, payment method, and invoices anytime from the billing portal in your <b>PennyPilot</b> settings.
				</p>
			</div>
			<div class="footer">
				&copy; %d <span class="brand">PennyPilot</span> — Every Penny, On Course.
			</div>
		</div>
	</body>
	</html>
	`, username, tier, amount, tier, periodEnd.Format("Jan 2, 2006"), time.Now().Year())

	return SendEmail(to, subject, body)
}
