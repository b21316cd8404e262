// Package backends provides the built-in notification backends and the
// registry builder.
//
// Site stores a rendered notice.html in the inbox. Email renders
// notification_subject.txt, full.txt and (optionally) full.html and sends
// them through an email.EmailSender. Build turns a list of Definitions,
// usually read from a YAML file with LoadDefinitions, into a
// notification.Registry.
package backends
