// File path: internal/session/selfservice.go
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mapline/guestjourney/internal/journey"
	"github.com/mapline/guestjourney/internal/store"
)

// ErrInvalidToken reports an unknown or revoked self-service token.
var ErrInvalidToken = errors.New("invalid or revoked access token")

// LinkResult carries a freshly issued self-service token.
type LinkResult struct {
	SMEID string `json:"sme_id"`
	Token string `json:"token"`
}

// IssueLink creates a self-service access token for an SME and marks the
// SME as contacted.
func (o *Orchestrator) IssueLink(ctx context.Context, smeID string) (*LinkResult, error) {
	sme, err := o.store.SMEByID(ctx, smeID)
	if err != nil {
		return nil, err
	}
	token := uuid.NewString()
	if err := o.store.InsertToken(ctx, store.TokenRow{
		Token:    token,
		SMEID:    sme.SMEID,
		IssuedAt: store.Now(),
	}); err != nil {
		return nil, err
	}
	if sme.InterviewStatus == journey.InterviewPending {
		if err := o.store.UpdateSME(ctx, sme.ID, store.Fields{
			"interview_status": journey.InterviewLinkSent,
			"updated_at":       store.Now(),
		}); err != nil {
			return nil, err
		}
	}
	return &LinkResult{SMEID: sme.SMEID, Token: token}, nil
}

// StartSelfService resolves a token to an interview session. An SME has at
// most one active self-service session: an existing one is resumed, a
// paused one reactivates on the next message, and only when none exists is
// a new session opened.
func (o *Orchestrator) StartSelfService(ctx context.Context, token string) (*StartResult, error) {
	sme, err := o.resolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	sessions, err := o.store.SessionsBySME(ctx, sme.SMEID)
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		if session.Method != journey.MethodSelfService || session.Status == journey.SessionClosed {
			continue
		}
		state := session.State()
		return &StartResult{
			SessionID:      session.SessionID,
			SMEID:          sme.SMEID,
			OpeningMessage: "Welcome back. Your previous session continues where you left off.",
			CurrentStage:   stageOrDiscovery(state.CurrentStage),
		}, nil
	}

	return o.Start(ctx, StartRequest{
		SMEID:  sme.SMEID,
		Method: journey.MethodSelfService,
	})
}

// SelfServiceTurn runs one turn authenticated by token. The token's SME
// must own the session.
func (o *Orchestrator) SelfServiceTurn(ctx context.Context, token, sessionID, message string) (*TurnResult, error) {
	sme, err := o.resolveToken(ctx, token)
	if err != nil {
		return nil, err
	}
	session, err := o.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.SMEID != sme.SMEID {
		return nil, fmt.Errorf("session %s does not belong to token holder: %w", sessionID, ErrInvalidToken)
	}
	return o.ProcessTurn(ctx, sessionID, message)
}

func (o *Orchestrator) resolveToken(ctx context.Context, token string) (*store.SMERow, error) {
	row, err := o.store.TokenByValue(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return o.store.SMEByID(ctx, row.SMEID)
}
