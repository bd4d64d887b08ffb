package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/gorilla/mux"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/cmd/bot/monitoring"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/logging"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/messages"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/request"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/router"
)

// authOption is an option for the auth middleware. It indicates the type of authentication required.
type authOption int

const (
	// authOptionNone indicates that no authentication is required.
	authOptionNone authOption = iota
)

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(handler Controller, authRequired authOption, a IApp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(cw).Encode(request.NewMessage(request.ErrInternalServer.Error())); err != nil {
					a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path // If the route does not define a path, use the URL path.
			}
		} else {
			path = r.URL.Path // If the route is nil, use the URL path.
		}

		defer func() {
			// Run the deferred function after the request has been handled, as the status code will not be available until then.
			monitoring.HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			monitoring.HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// interactionHandler adapts incoming discord interactions into router events
// and dispatches them.
func interactionHandler(a IApp, rt *router.Router) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		ev := eventFromInteraction(a, i)
		if ev == nil {
			return
		}

		a.Log().Debug("Handling interaction",
			slog.String("kind", ev.Kind.String()),
			slog.String("id", ev.ID),
		)

		now := time.Now().UTC()
		err := rt.Dispatch(context.Background(), ev)
		monitoring.InteractionDuration.WithLabelValues(ev.Kind.String(), ev.ID).Observe(time.Since(now).Seconds())
		if err == nil || errors.Is(err, router.ErrUnrouted) {
			// Unrouted interactions have already been answered by the router.
			return
		}

		a.Log().Error(fmt.Sprintf("Error processing interaction %s", ev.ID),
			slog.String(logging.KeyError, err.Error()))

		// Make sure the user is not left hanging on a failure.
		if !ev.Ack.Acknowledged() {
			if err := ev.Ack.Respond(messages.ErrUserErrorProcessing, true); err != nil {
				a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
			}
		}
	}
}

// eventFromInteraction maps a discord interaction onto a router event. It
// returns nil for interaction types that are not routed.
func eventFromInteraction(a IApp, i *discordgo.InteractionCreate) *router.Event {
	ev := &router.Event{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Ack:       router.NewAck(newInteractionResponder(a.Session(), i)),
	}

	if i.Member != nil && i.Member.User != nil {
		ev.UserID = i.Member.User.ID
		ev.Username = i.Member.User.Username
		ev.MemberRoles = i.Member.Roles
		ev.Permissions = i.Member.Permissions
	} else if i.User != nil {
		ev.UserID = i.User.ID
		ev.Username = i.User.Username
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		ev.Kind = router.KindCommand
		ev.ID = data.Name
		ev.Fields = commandFields(data.Options)
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		ev.Kind = router.KindComponent
		ev.ID = data.CustomID
		ev.Values = data.Values
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		ev.Kind = router.KindModal
		ev.ID = data.CustomID
		ev.Fields = modalFields(data.Components)
	default:
		return nil
	}

	return ev
}

// commandFields flattens slash command options into a string map. Subcommands
// are recorded under the "subcommand" key with their options merged in.
func commandFields(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	fields := make(map[string]string, len(opts))
	for _, opt := range opts {
		if opt.Type == discordgo.ApplicationCommandOptionSubCommand {
			fields["subcommand"] = opt.Name
			for _, sub := range opt.Options {
				fields[sub.Name] = fmt.Sprintf("%v", sub.Value)
			}
			continue
		}
		fields[opt.Name] = fmt.Sprintf("%v", opt.Value)
	}
	return fields
}

// modalFields extracts text input values from submitted modal components.
func modalFields(components []discordgo.MessageComponent) map[string]string {
	fields := make(map[string]string)
	for _, c := range components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, rc := range row.Components {
			input, ok := rc.(*discordgo.TextInput)
			if !ok {
				continue
			}
			fields[input.CustomID] = input.Value
		}
	}
	return fields
}

// interactionResponder sends acknowledgements for a single interaction.
type interactionResponder struct {
	s *discordgo.Session
	i *discordgo.InteractionCreate
}

func newInteractionResponder(s *discordgo.Session, i *discordgo.InteractionCreate) *interactionResponder {
	return &interactionResponder{
		s: s,
		i: i,
	}
}

func (r *interactionResponder) Respond(content string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Content: content,
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return r.s.InteractionRespond(r.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func (r *interactionResponder) Defer(ephemeral bool) error {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return r.s.InteractionRespond(r.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
}

func (r *interactionResponder) Prompt(customID, title string, fields []router.PromptField) error {
	rows := make([]discordgo.MessageComponent, 0, len(fields))
	for _, f := range fields {
		style := discordgo.TextInputShort
		if f.Paragraph {
			style = discordgo.TextInputParagraph
		}
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    f.ID,
					Label:       f.Label,
					Placeholder: f.Placeholder,
					Style:       style,
					Required:    f.Required,
				},
			},
		})
	}
	return r.s.InteractionRespond(r.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	})
}

func (r *interactionResponder) FollowUp(content string) error {
	_, err := r.s.FollowupMessageCreate(r.i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
	return err
}
