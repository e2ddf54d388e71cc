package server

import (
	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"
	friendcommands "github.com/eskrenkovic/run-sessions-go/internal/modules/friend/commands"
	frienddomain "github.com/eskrenkovic/run-sessions-go/internal/modules/friend/domain"
	friendqueries "github.com/eskrenkovic/run-sessions-go/internal/modules/friend/queries"
	invitecommands "github.com/eskrenkovic/run-sessions-go/internal/modules/invite/commands"
	invitedomain "github.com/eskrenkovic/run-sessions-go/internal/modules/invite/domain"
	invitequeries "github.com/eskrenkovic/run-sessions-go/internal/modules/invite/queries"
	sessioncommands "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/commands"
	sessiondomain "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/domain"
	sessionqueries "github.com/eskrenkovic/run-sessions-go/internal/modules/run-session/queries"

	"github.com/eskrenkovic/mediator-go"
	"go.uber.org/zap"
)

func registerHandlers(logger *zap.Logger, c components) error {
	requestLoggingBehavior := core.RequestLoggingBehavior{Logger: logger}
	handlerErrorLoggingBehavior := core.HandlerErrorLoggingBehavior{Logger: logger}
	requestValidationBehavior := core.RequestValidationBehavior{}

	mediator.RegisterPipelineBehavior(&requestLoggingBehavior)
	mediator.RegisterPipelineBehavior(&handlerErrorLoggingBehavior)
	mediator.RegisterPipelineBehavior(&requestValidationBehavior)

	registrations := []func() error{
		// run-session
		func() error {
			return mediator.RegisterRequestHandler[sessioncommands.StartSessionCommand, sessiondomain.Session](
				sessioncommands.NewStartSessionCommandHandler(c.sessions, c.coordinator, c.presence, c.locations),
			)
		},
		func() error {
			return mediator.RegisterRequestHandler[sessioncommands.StopSessionCommand, core.Unit](
				sessioncommands.NewStopSessionCommandHandler(c.sessions, c.coordinator, c.presence, c.locations),
			)
		},
		func() error {
			return mediator.RegisterRequestHandler[sessionqueries.GetActiveSessionQuery, sessionqueries.ActiveSessionResponse](
				sessionqueries.NewGetActiveSessionQueryHandler(c.db),
			)
		},

		// invite
		func() error {
			return mediator.RegisterRequestHandler[invitecommands.SendInviteCommand, invitedomain.Invite](
				invitecommands.NewSendInviteCommandHandler(c.invites, c.sessions, c.settings, c.friends),
			)
		},
		func() error {
			return mediator.RegisterRequestHandler[invitecommands.AcceptInviteCommand, core.Unit](
				invitecommands.NewAcceptInviteCommandHandler(c.invites, c.sessions, c.coordinator),
			)
		},
		func() error {
			return mediator.RegisterRequestHandler[invitecommands.DeclineInviteCommand, core.Unit](
				invitecommands.NewDeclineInviteCommandHandler(c.invites),
			)
		},
		func() error {
			return mediator.RegisterRequestHandler[invitecommands.RevokeInviteCommand, core.Unit](
				invitecommands.NewRevokeInviteCommandHandler(c.invites, c.sessions),
			)
		},
		func() error {
			return mediator.RegisterRequestHandler[invitequeries.ListPendingInvitesQuery, []invitedomain.Invite](
				invitequeries.NewListPendingInvitesQueryHandler(c.db),
			)
		},

		// friend
		func() error {
			return mediator.RegisterRequestHandler[friendcommands.SendFriendRequestCommand, frienddomain.FriendRequest](
				friendcommands.NewSendFriendRequestCommandHandler(c.friends),
			)
		},
		func() error {
			return mediator.RegisterRequestHandler[friendcommands.AcceptFriendRequestCommand, core.Unit](
				friendcommands.NewAcceptFriendRequestCommandHandler(c.friends),
			)
		},
		func() error {
			return mediator.RegisterRequestHandler[friendcommands.DeclineFriendRequestCommand, core.Unit](
				friendcommands.NewDeclineFriendRequestCommandHandler(c.friends),
			)
		},
		func() error {
			return mediator.RegisterRequestHandler[friendqueries.ListFriendsQuery, []friendqueries.FriendResponse](
				friendqueries.NewListFriendsQueryHandler(c.db),
			)
		},
		func() error {
			return mediator.RegisterRequestHandler[friendqueries.ListPendingFriendRequestsQuery, []frienddomain.FriendRequest](
				friendqueries.NewListPendingFriendRequestsQueryHandler(c.db),
			)
		},
		func() error {
			return mediator.RegisterRequestHandler[friendqueries.CheckFriendshipQuery, friendqueries.FriendshipResponse](
				friendqueries.NewCheckFriendshipQueryHandler(c.friends),
			)
		},
	}

	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}

	return nil
}
