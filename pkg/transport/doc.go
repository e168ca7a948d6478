// Package transport delivers rendered notifications to their recipients.
//
// Every delivery channel implements the Sender interface. The package ships
// with senders for Postmark and Amazon SES email, Amazon SNS text messages,
// an in-app inbox backed by a MongoDB collection, and a DevSender that writes
// messages to disk for local development.
//
// # Usage
//
//	sender, err := transport.NewEmailSender(ctx, transport.Config{
//	    Provider:    transport.ProviderPostmark,
//	    SenderEmail: "noreply@example.com",
//	    // ...
//	})
//	if err != nil {
//	    return err
//	}
//
//	err = sender.Send(ctx, transport.Message{
//	    To:      "user@example.com",
//	    Subject: "Reminder",
//	    Body:    "Finish the quarterly report",
//	})
//
// # Error Handling
//
// Senders validate the message before talking to the provider and return
// ErrInvalidMessage for bad input. Provider failures are joined with
// ErrSendFailed so callers can check them with errors.Is.
package transport
