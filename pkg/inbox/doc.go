// Package inbox stores notices delivered by the site backend and implements
// the recipient-side operations on them: listing, unseen counts, viewing
// (which marks a notice seen), archiving, deleting and marking all seen.
//
// Only the recipient of a notice, or a privileged Actor, may archive or
// delete it. Viewing is limited to the recipient.
package inbox
