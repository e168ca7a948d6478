package transport

// Provider names an email backend.
type Provider string

const (
	ProviderPostmark Provider = "postmark"
	ProviderSES      Provider = "ses"
	ProviderDev      Provider = "dev"
)

// Config holds transport configuration.
// SenderEmail and SupportEmail establish the sender identity and reply-to
// address for all outbound emails, whichever provider is selected.
type Config struct {
	Provider             Provider `env:"EMAIL_PROVIDER" envDefault:"dev"`
	PostmarkServerToken  string   `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string   `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string   `env:"SENDER_EMAIL,required"`
	SupportEmail         string   `env:"SUPPORT_EMAIL,required"`
	AWSRegion            string   `env:"AWS_REGION" envDefault:"us-east-1"`
	SMSEnabled           bool     `env:"SMS_ENABLED" envDefault:"false"`
	SMSSenderID          string   `env:"SMS_SENDER_ID"`
	DevMailDir           string   `env:"DEV_MAIL_DIR" envDefault:"./tmp/mail"`
	InboxCollection      string   `env:"INBOX_COLLECTION" envDefault:"notifications"`
}
