package email

// Config holds e-mail delivery settings. Without Postmark tokens, mail is
// written to DevDir instead of being sent.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// UsesPostmark reports whether both Postmark tokens are configured.
func (c Config) UsesPostmark() bool {
	return c.PostmarkServerToken != "" && c.PostmarkAccountToken != ""
}
