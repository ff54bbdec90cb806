package session

import (
	"context"
	"errors"

	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
	"github.com/YashavikaSingh/meeting-summariser/pkg/logging"
	"github.com/YashavikaSingh/meeting-summariser/pkg/meeting"
)

// RefreshMeetings replaces the past-meetings list with the backend's. A failed
// fetch leaves the list unchanged.
func (m *Machine) RefreshMeetings(ctx context.Context) error {
	list, err := m.backend.ListMeetings(ctx)
	if err != nil {
		m.logger.Warn("listing meetings failed", logging.Err(err))
		return err
	}

	m.mu.Lock()
	m.state.Meetings = list
	m.mu.Unlock()
	return nil
}

func checkID(id string) error {
	if !meeting.IsValidID(id) {
		return mserrors.NewValidationError("meeting_id", msgInvalidID)
	}
	return nil
}

// LoadMeeting opens a past meeting for review. The summary is kept exactly as
// stored; views clean it when rendering.
func (m *Machine) LoadMeeting(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return m.fail("load rejected", err)
	}

	gen, err := m.begin(loading)
	if err != nil {
		return err
	}
	defer m.end(loading)

	ctx = logging.ContextWithMeetingID(ctx, id)
	d, err := m.backend.GetMeeting(ctx, id)
	if err != nil {
		return m.fail("loading meeting failed", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return nil
	}
	m.state.MeetingID = d.ID
	m.state.MeetingName = d.Name
	m.state.TranscriptText = d.Transcript
	m.state.SummaryText = d.Summary
	m.state.AttendeeEmails = meeting.JoinEmails(d.Attendees)
	m.state.SelectedFile = nil
	m.state.Chat = nil
	m.state.LastError = ""
	m.state.ProcessingComplete = true
	m.state.Step = StepReview
	m.observed = readiness{}
	return nil
}

// DeleteMeeting asks for confirmation and deletes a past meeting. On success
// the meeting leaves the local list at once and the list is re-fetched after
// the refresh delay; the session is reset when it was showing that meeting.
// It reports whether the meeting was deleted, which is false when the user
// declined.
func (m *Machine) DeleteMeeting(ctx context.Context, id string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, m.fail("delete rejected", err)
	}

	ok, err := m.confirmer.Confirm(ctx, msgDeletePrompt)
	if err != nil {
		return false, err
	}
	if !ok {
		m.logger.Debug("delete declined", logging.F("meeting_id", id))
		return false, nil
	}

	if _, err := m.begin(deleting); err != nil {
		return false, err
	}
	defer m.end(deleting)

	dctx, cancel := context.WithTimeout(logging.ContextWithMeetingID(ctx, id), m.deleteTimeout)
	defer cancel()

	if err := m.backend.DeleteMeeting(dctx, id); err != nil {
		err = m.fail("deleting meeting failed", err)
		m.notifier.Notify(Notice{Kind: NoticeError, Message: "Failed to delete meeting: " + mserrors.DisplayMessage(err)})
		return false, err
	}

	m.mu.Lock()
	m.state.Meetings = meeting.Remove(m.state.Meetings, id)
	if m.state.MeetingID == id {
		m.resetLocked()
	}
	m.scheduleRefreshLocked()
	m.mu.Unlock()

	m.logger.Info("meeting deleted", logging.F("meeting_id", id))
	m.notifier.Notify(Notice{Kind: NoticeSuccess, Message: msgDeleted})
	return true, nil
}

// scheduleRefreshLocked replaces any pending refresh with a new one.
func (m *Machine) scheduleRefreshLocked() {
	if m.refresh != nil {
		m.refresh.Stop()
	}
	m.refresh = m.afterFunc(m.refreshDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.deleteTimeout)
		defer cancel()
		if err := m.RefreshMeetings(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Debug("delayed refresh failed", logging.Err(err))
		}
	})
}
