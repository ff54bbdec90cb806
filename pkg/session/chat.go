package session

import (
	"context"
	"errors"
	"strings"

	"github.com/YashavikaSingh/meeting-summariser/client"
	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
	"github.com/YashavikaSingh/meeting-summariser/pkg/logging"
)

// Ask sends a follow-up question about the current meeting and returns the
// answer. The question is grounded in the transcript, or in the summary when
// no transcript is available. On failure the returned text is the apology
// added to the conversation.
func (m *Machine) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", m.fail("empty question", mserrors.NewValidationError("question", msgEmptyQuestion))
	}

	m.mu.Lock()
	grounding := m.state.TranscriptText
	if strings.TrimSpace(grounding) == "" {
		grounding = m.state.SummaryText
	}
	meetingID := m.state.MeetingID
	m.mu.Unlock()

	if strings.TrimSpace(grounding) == "" {
		return "", m.fail("nothing to ask about", mserrors.NewValidationError("question", msgNothingToAsk))
	}

	gen, err := m.begin(chatting)
	if err != nil {
		return "", err
	}
	defer m.end(chatting)

	m.appendChat(gen, ChatMessage{Role: RoleUser, Text: question})

	answer, err := m.backend.Chat(ctx, client.ChatRequest{Query: question, Transcript: grounding, MeetingID: meetingID})
	if err != nil {
		reply := msgChatFailed
		if errors.Is(err, mserrors.ErrDataShape) {
			reply = msgChatNoResponse
		}
		m.appendChat(gen, ChatMessage{Role: RoleAssistant, Text: reply})
		return reply, m.fail("chat failed", err)
	}

	m.logger.Debug("chat answered", logging.F("meeting_id", meetingID))
	m.appendChat(gen, ChatMessage{Role: RoleAssistant, Text: answer})
	return answer, nil
}

func (m *Machine) appendChat(gen uint64, msg ChatMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen == m.generation {
		m.state.Chat = append(m.state.Chat, msg)
	}
}
