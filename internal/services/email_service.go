package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/vehiscan/vehiscan/pkg/logger"
)

// EmailService defines the interface for sending emails
type EmailService interface {
	SendRenewalReminder(ctx context.Context, email, plate string, dueDate time.Time, daysLeft int) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// SendRenewalReminder sends a registration renewal reminder to the vehicle owner
func (s *AWSSESEmailService) SendRenewalReminder(ctx context.Context, email, plate string, dueDate time.Time, daysLeft int) error {
	due := dueDate.Format("January 2, 2006")
	subject := fmt.Sprintf("Vehicle registration renewal due in %d day(s)", daysLeft)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .highlight { background-color: #fff3cd; padding: 10px; border-left: 4px solid #ffc107; margin: 10px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Registration Renewal Reminder</h1>
        </div>
        <div class="content">
            <p>Your vehicle with plate number <strong>%s</strong> is due for registration renewal.</p>
            <div class="highlight">
                <strong>Due date:</strong> %s (%d day(s) from now)
            </div>
            <p>Please renew before the due date to keep the registration valid. An expired registration will show as <strong>Expired</strong> when the vehicle's QR code is scanned.</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, plate, due, daysLeft)

	textBody := fmt.Sprintf(`Registration Renewal Reminder

Your vehicle with plate number %s is due for registration renewal.

Due date: %s (%d day(s) from now)

Please renew before the due date to keep the registration valid. An expired registration will show as Expired when the vehicle's QR code is scanned.

This is an automated message. Please do not reply to this email.
`, plate, due, daysLeft)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send renewal reminder via SES",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("renewal reminder sent",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("message_id", *result.MessageId))

	return nil
}

// LogEmailService records reminders in the log instead of sending them.
// Used when EMAIL_ENABLED is off, typically in development.
type LogEmailService struct {
	logger *slog.Logger
}

// NewLogEmailService creates a log-only email service
func NewLogEmailService(logger *slog.Logger) *LogEmailService {
	return &LogEmailService{logger: logger}
}

func (s *LogEmailService) SendRenewalReminder(ctx context.Context, email, plate string, dueDate time.Time, daysLeft int) error {
	s.logger.Info("renewal reminder (email disabled)",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("plate", pkglogger.SanitizedPlate(plate)),
		slog.String("due", dueDate.Format("2006-01-02")),
		slog.Int("days_left", daysLeft))
	return nil
}
