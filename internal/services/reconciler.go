package services

import (
	"context"

	"github.com/peifeira/peifeira-api/internal/database"
	"github.com/peifeira/peifeira-api/internal/models"
)

// Acceptance is the outcome of a reconciled invitation.
type Acceptance struct {
	Invitation *models.Invitation
	Member     *models.TeamMember
	Superseded int64
}

// MembershipReconciler turns an accepted invitation into a membership. It
// changes memberships only through TeamService.
type MembershipReconciler struct {
	teams *TeamService
}

func NewMembershipReconciler(teams *TeamService) *MembershipReconciler {
	return &MembershipReconciler{teams: teams}
}

// ReconcileAcceptance must run inside the caller's transaction, after the
// team and invitation rows have been locked in that order. Eligibility is
// checked again because it may have changed since the invitation was sent.
func (r *MembershipReconciler) ReconcileAcceptance(ctx context.Context, q database.Querier, team *models.Team, inv *models.Invitation) (*Acceptance, error) {
	if !team.Active {
		return nil, ErrTeamNotFound
	}
	if inv.InviteeID == team.LeaderID {
		return nil, ErrStudentIsLeader
	}
	if err := requireActiveStudent(ctx, q, inv.InviteeID); err != nil {
		return nil, err
	}

	isMember, err := isActiveMember(ctx, q, team.ID, inv.InviteeID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return nil, ErrAlreadyMember
	}

	member, err := r.teams.insertMember(ctx, q, team.ID, inv.InviteeID)
	if err != nil {
		return nil, err
	}

	accepted, err := resolveInvitation(ctx, q, inv.ID, models.InvitationAccepted, nil)
	if err != nil {
		return nil, err
	}

	superseded, err := cancelPendingFor(ctx, q, team.ID, inv.InviteeID, inv.ID, models.ReasonSuperseded)
	if err != nil {
		return nil, err
	}

	return &Acceptance{Invitation: accepted, Member: member, Superseded: superseded}, nil
}
