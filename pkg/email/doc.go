// Package email sends transactional e-mail through a provider-agnostic
// EmailSender interface.
//
// Two implementations are provided: a Postmark client for real delivery and
// DevSender, which writes messages to a local directory. NewSender picks one
// from Config. The notification e-mail backend and the drain engine's admin
// alerts both send through this package.
//
//	sender, err := email.NewSender(cfg)
//	if err != nil {
//	    return err
//	}
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "user@example.com",
//	    Subject:  "New reply",
//	    BodyText: "Someone replied to your comment.",
//	    Tag:      "comment_reply",
//	})
package email
