package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
	"github.com/YashavikaSingh/meeting-summariser/pkg/logging"
	"github.com/YashavikaSingh/meeting-summariser/pkg/meeting"
	"github.com/YashavikaSingh/meeting-summariser/pkg/transcript"
)

// Backend operation names, used for spans, metrics and error ops.
const (
	OpSummarize       = "summarize"
	OpChat            = "chat"
	OpSendEmail       = "send_email"
	OpListMeetings    = "list_meetings"
	OpSearchMeetings  = "search_meetings"
	OpGetMeeting      = "get_meeting"
	OpUpdateAttendees = "update_attendees"
	OpDeleteMeeting   = "delete_meeting"
	OpProcessMeeting  = "process_meeting"
)

// SummarizeRequest is the multipart upload for POST /api/summarize.
type SummarizeRequest struct {
	File        *transcript.File
	Emails      string
	MeetingName string
}

// SummarizeResult is what the backend produced for an upload. MeetingID is
// empty on backends that do not persist meetings.
type SummarizeResult struct {
	Summary    string `json:"summary" yaml:"summary"`
	Transcript string `json:"transcript" yaml:"transcript"`
	MeetingID  string `json:"meeting_id,omitempty" yaml:"meeting_id,omitempty"`
}

// ChatRequest asks a question grounded in Transcript, which carries the summary
// when no transcript is available.
type ChatRequest struct {
	Query      string `json:"query"`
	Transcript string `json:"transcript"`
	MeetingID  string `json:"meeting_id,omitempty"`
}

// EmailRequest mails a summary to a comma-separated recipient list.
type EmailRequest struct {
	Summary   string `json:"summary"`
	Emails    string `json:"emails"`
	MeetingID string `json:"meeting_id,omitempty"`
}

func meetingPath(id string, suffix string) string {
	return "/api/meetings/" + url.PathEscape(id) + suffix
}

// Summarize uploads a transcript and returns the generated summary.
func (c *Client) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResult, error) {
	if req.File == nil {
		return nil, mserrors.NewValidationError("file", "Please select a transcript file.")
	}

	body := func() (io.Reader, string, error) {
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		part, err := w.CreateFormFile("file", req.File.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.WriteString(part, req.File.Content); err != nil {
			return nil, "", err
		}
		if err := w.WriteField("emails", req.Emails); err != nil {
			return nil, "", err
		}
		if err := w.WriteField("meeting_name", req.MeetingName); err != nil {
			return nil, "", err
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return buf, w.FormDataContentType(), nil
	}

	var payload meeting.RawRecord
	if err := c.do(ctx, request{op: OpSummarize, method: http.MethodPost, path: "/api/summarize", body: body}, &payload); err != nil {
		return nil, err
	}
	if err := envelopeError(OpSummarize, payload); err != nil {
		return nil, err
	}

	summary, ok := payload["summary"].(string)
	if !ok {
		return nil, &mserrors.DataShapeError{Op: OpSummarize, Field: "summary"}
	}
	result := &SummarizeResult{Summary: summary}
	result.Transcript, _ = payload["transcript"].(string)
	if id, ok := payload.Text("meeting_id"); ok && meeting.IsValidID(id) {
		result.MeetingID = id
	}
	return result, nil
}

// Chat asks a follow-up question and returns the assistant's answer.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	var payload meeting.RawRecord
	if err := c.do(ctx, request{op: OpChat, method: http.MethodPost, path: "/api/chat", body: jsonBody(req)}, &payload); err != nil {
		return "", err
	}
	if err := envelopeError(OpChat, payload); err != nil {
		return "", err
	}

	answer, ok := payload.Text("response")
	if !ok {
		return "", &mserrors.DataShapeError{Op: OpChat, Field: "response"}
	}
	return answer, nil
}

// SendEmail mails the summary to the attendees.
func (c *Client) SendEmail(ctx context.Context, req EmailRequest) error {
	return c.do(ctx, request{op: OpSendEmail, method: http.MethodPost, path: "/api/send-email", body: jsonBody(req)}, nil)
}

// ListMeetings fetches past meetings and normalizes them for display.
func (c *Client) ListMeetings(ctx context.Context) ([]meeting.Summary, error) {
	return c.listing(ctx, request{op: OpListMeetings, method: http.MethodGet, path: "/api/meetings"})
}

// SearchMeetings runs a semantic search over past meetings.
func (c *Client) SearchMeetings(ctx context.Context, query string, limit int) ([]meeting.Summary, error) {
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.listing(ctx, request{op: OpSearchMeetings, method: http.MethodGet, path: "/api/meetings/search", query: q})
}

func (c *Client) listing(ctx context.Context, r request) ([]meeting.Summary, error) {
	var payload meeting.RawRecord
	if err := c.do(ctx, r, &payload); err != nil {
		return nil, err
	}
	if err := envelopeError(r.op, payload); err != nil {
		return nil, err
	}

	items, ok := payload["meetings"].([]any)
	if !ok {
		return nil, &mserrors.DataShapeError{Op: r.op, Field: "meetings"}
	}

	records := make([]meeting.RawRecord, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			records = append(records, m)
		}
	}

	list := meeting.Normalize(records)
	if dropped := len(items) - len(list); dropped > 0 {
		c.logger.Debug("dropped unaddressable meetings", logging.F("dropped", dropped))
	}
	return list, nil
}

// GetMeeting loads a single meeting for review.
func (c *Client) GetMeeting(ctx context.Context, id string) (*meeting.Detail, error) {
	var payload meeting.RawRecord
	if err := c.do(ctx, request{op: OpGetMeeting, method: http.MethodGet, path: meetingPath(id, "")}, &payload); err != nil {
		return nil, err
	}
	if err := envelopeError(OpGetMeeting, payload); err != nil {
		return nil, err
	}
	return meeting.ParseDetail(id, payload)
}

// UpdateAttendees replaces the stored attendee list of a meeting.
func (c *Client) UpdateAttendees(ctx context.Context, id string, attendees []string) error {
	if attendees == nil {
		attendees = []string{}
	}
	body := jsonBody(map[string]any{"attendees": attendees})
	return c.do(ctx, request{op: OpUpdateAttendees, method: http.MethodPut, path: meetingPath(id, "/attendees"), body: body}, nil)
}

// DeleteMeeting removes a meeting from the backend.
func (c *Client) DeleteMeeting(ctx context.Context, id string) error {
	return c.do(ctx, request{op: OpDeleteMeeting, method: http.MethodDelete, path: meetingPath(id, "")}, nil)
}

// ProcessMeeting asks the backend to run its extended analysis (action items,
// key topics, decisions, next steps) on a stored meeting.
func (c *Client) ProcessMeeting(ctx context.Context, id string) (meeting.RawRecord, error) {
	var payload meeting.RawRecord
	r := request{op: OpProcessMeeting, method: http.MethodPost, path: "/api/process/" + url.PathEscape(id), body: jsonBody(map[string]any{})}
	if err := c.do(ctx, r, &payload); err != nil {
		return nil, err
	}
	if err := envelopeError(OpProcessMeeting, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// envelopeError turns a 2xx {"status": "error"} body into a NetworkError.
func envelopeError(op string, payload meeting.RawRecord) error {
	if payload == nil {
		return &mserrors.DataShapeError{Op: op, Field: "body"}
	}
	if status, _ := payload.Text("status"); status == "error" {
		msg, _ := payload.Text("message")
		return &mserrors.NetworkError{Op: op, StatusCode: http.StatusOK, Message: msg}
	}
	return nil
}
