package email

import (
	"fmt"
	"net/smtp"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	SMTPServer string
	SMTPPort   int
	Username   string
	Password   string
	FromName   string
	FromEmail  string
}

type Message struct {
	To      []string
	Subject string
	Body    string
	IsHTML  bool
}

// ConfigFromEnv reads the SMTP_* variables. Returns false when SMTP is not
// configured, which disables outbound mail rather than failing.
func ConfigFromEnv() (Config, bool) {
	server := os.Getenv("SMTP_SERVER")
	if server == "" {
		return Config{}, false
	}
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}
	return Config{
		SMTPServer: server,
		SMTPPort:   port,
		Username:   os.Getenv("SMTP_USERNAME"),
		Password:   os.Getenv("SMTP_PASSWORD"),
		FromName:   os.Getenv("SMTP_FROM_NAME"),
		FromEmail:  os.Getenv("SMTP_FROM_EMAIL"),
	}, true
}

// Send sends a single message.
func Send(config Config, message Message) error {
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", config.FromName, config.FromEmail)
	headers["To"] = strings.Join(message.To, ", ")
	headers["Subject"] = message.Subject
	if message.IsHTML {
		headers["MIME-Version"] = "1.0"
		headers["Content-Type"] = "text/html; charset=UTF-8"
	} else {
		headers["Content-Type"] = "text/plain; charset=UTF-8"
	}

	var body strings.Builder
	for key, value := range headers {
		body.WriteString(fmt.Sprintf("%s: %s\r\n", key, value))
	}
	body.WriteString("\r\n")
	body.WriteString(message.Body)

	auth := smtp.PlainAuth("", config.Username, config.Password, config.SMTPServer)
	serverAddr := fmt.Sprintf("%s:%d", config.SMTPServer, config.SMTPPort)

	if err := smtp.SendMail(serverAddr, auth, config.FromEmail, message.To, []byte(body.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
