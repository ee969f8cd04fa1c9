package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"

	"atendo/pkg/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
)

// EmailService delivers transactional email via AWS SES or plain SMTP,
// whichever is configured. Construction fails when neither is, and the
// caller treats the mailer as absent.
type EmailService struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string

	sesClient *ses.SES
	useSES    bool
}

// NewEmailService creates an email service from environment variables.
// AWS SES configuration wins over SMTP when both are present.
func NewEmailService() (*EmailService, error) {
	svc := &EmailService{}

	awsRegion := os.Getenv("AWS_REGION")
	awsAccessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	awsSecretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	sesFromEmail := os.Getenv("SES_FROM_EMAIL")

	if awsRegion != "" && awsAccessKey != "" && awsSecretKey != "" && sesFromEmail != "" {
		sess, err := session.NewSession(&aws.Config{
			Region:      aws.String(awsRegion),
			Credentials: credentials.NewStaticCredentials(awsAccessKey, awsSecretKey, ""),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		svc.sesClient = ses.New(sess)
		svc.fromEmail = sesFromEmail
		svc.useSES = true
		return svc, nil
	}

	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPassword := os.Getenv("SMTP_PASSWORD")
	fromEmail := os.Getenv("FROM_EMAIL")

	if smtpHost == "" || smtpPort == "" || smtpUser == "" || smtpPassword == "" || fromEmail == "" {
		return nil, fmt.Errorf("email service not configured. Set either AWS SES credentials (AWS_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, SES_FROM_EMAIL) or SMTP credentials (SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD, FROM_EMAIL)")
	}

	svc.smtpHost = smtpHost
	svc.smtpPort = smtpPort
	svc.smtpUser = smtpUser
	svc.smtpPassword = smtpPassword
	svc.fromEmail = fromEmail
	svc.useSES = false

	return svc, nil
}

// SendEmail sends an email using SES or SMTP
func (s *EmailService) SendEmail(to []string, subject, body string) error {
	if s.useSES {
		return s.sendEmailWithSES(to, subject, body)
	}
	return s.sendEmailWithSMTP(to, subject, body)
}

func (s *EmailService) sendEmailWithSES(to []string, subject, body string) error {
	if s.sesClient == nil {
		return fmt.Errorf("SES client not configured")
	}

	var toAddresses []*string
	for _, addr := range to {
		toAddresses = append(toAddresses, aws.String(addr))
	}

	input := &ses.SendEmailInput{
		Destination: &ses.Destination{
			ToAddresses: toAddresses,
		},
		Message: &ses.Message{
			Body: &ses.Body{
				Html: &ses.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(body),
				},
			},
			Subject: &ses.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(subject),
			},
		},
		Source: aws.String(s.fromEmail),
	}

	if _, err := s.sesClient.SendEmail(input); err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	return nil
}

func (s *EmailService) sendEmailWithSMTP(to []string, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.fromEmail, to[0], subject, body)

	addr := s.smtpHost + ":" + s.smtpPort
	if err := smtp.SendMail(addr, auth, s.fromEmail, to, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}
	return nil
}

var assignmentTemplate = template.Must(template.New("assignment").Parse(`
<html>
<body>
	<p>Hi {{.AssigneeName}},</p>
	<p>Conversation #{{.DisplayID}} with {{.ContactName}} has been assigned to you.</p>
	<p>Status: {{.Status}}</p>
</body>
</html>
`))

// SendConversationAssigned notifies an agent that a conversation landed
// on their queue.
func (s *EmailService) SendConversationAssigned(conv *models.Conversation, assignee *models.User) error {
	contactName := "a contact"
	if conv.Contact != nil {
		contactName = conv.Contact.Name
	}

	var body bytes.Buffer
	err := assignmentTemplate.Execute(&body, map[string]interface{}{
		"AssigneeName": assignee.Name,
		"DisplayID":    conv.DisplayID,
		"ContactName":  contactName,
		"Status":       conv.Status.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to render assignment email: %w", err)
	}

	subject := fmt.Sprintf("Conversation #%d was assigned to you", conv.DisplayID)
	return s.SendEmail([]string{assignee.Email}, subject, body.String())
}
