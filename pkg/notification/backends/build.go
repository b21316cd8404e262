package backends

import (
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/inbox"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Deps are the collaborators backends may need. Only the ones used by the
// configured kinds are required.
type Deps struct {
	Settings notification.SettingStore
	Renderer Renderer
	Inbox    *inbox.Manager
	Mailer   email.EmailSender
	SiteURL  string
}

// Sensitivities maps medium id to spam sensitivity.
func Sensitivities(defs []Definition) map[string]int {
	out := make(map[string]int, len(defs))
	for _, d := range defs {
		out[d.Medium] = d.SpamSensitivity
	}
	return out
}

// Build instantiates the backends named by defs and returns the registry
// together with the resolver they share.
func Build(defs []Definition, deps Deps) (*notification.Registry, *notification.Resolver, error) {
	if deps.Settings == nil {
		return nil, nil, fmt.Errorf("%w: settings store", ErrMissingDep)
	}
	resolver := notification.NewResolver(deps.Settings, Sensitivities(defs))

	media := make([]notification.Medium, 0, len(defs))
	for _, d := range defs {
		base := notification.BaseBackend{MediumID: d.Medium, Resolver: resolver}

		var backend notification.Backend
		switch d.Kind {
		case KindSite:
			if deps.Renderer == nil || deps.Inbox == nil {
				return nil, nil, fmt.Errorf("%w: %s backend needs a renderer and an inbox", ErrMissingDep, d.Label)
			}
			backend = &Site{BaseBackend: base, Renderer: deps.Renderer, Inbox: deps.Inbox, SiteURL: deps.SiteURL}
		case KindEmail:
			if deps.Renderer == nil || deps.Mailer == nil {
				return nil, nil, fmt.Errorf("%w: %s backend needs a renderer and a mailer", ErrMissingDep, d.Label)
			}
			backend = &Email{BaseBackend: base, Renderer: deps.Renderer, Sender: deps.Mailer, SiteURL: deps.SiteURL}
		default:
			return nil, nil, fmt.Errorf("%w: %q for medium %q", ErrUnknownKind, d.Kind, d.Medium)
		}

		media = append(media, notification.Medium{
			ID:              d.Medium,
			Label:           d.Label,
			SpamSensitivity: d.SpamSensitivity,
			Backend:         backend,
		})
	}

	registry, err := notification.NewRegistry(media...)
	if err != nil {
		return nil, nil, err
	}
	return registry, resolver, nil
}
