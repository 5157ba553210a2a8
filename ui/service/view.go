package service

import (
	"time"

	"github.com/samber/lo"

	"github.com/rgeissen/uderia-sub002/viewstate"
)

// MessageView is one transcript entry prepared for display.
type MessageView struct {
	Role        string   `json:"role"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
	Turn        int      `json:"turn,omitempty"`
	Error       bool     `json:"error,omitempty"`
}

// StatusLine is one status panel line prepared for display.
type StatusLine struct {
	Kind string    `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at,omitempty"`
}

// ViewModel is the full foreground view prepared for display.
type ViewModel struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`

	Busy     bool   `json:"busy"`
	Thinking bool   `json:"thinking"`
	TaskID   string `json:"task_id,omitempty"`

	Model           string  `json:"model,omitempty"`
	Provider        string  `json:"provider,omitempty"`
	InputTokens     int     `json:"input_tokens"`
	OutputTokens    int     `json:"output_tokens"`
	TotalTokens     int     `json:"total_tokens"`
	Cost            float64 `json:"cost"`
	KnowledgeBanner string  `json:"knowledge_banner,omitempty"`

	Transcript []MessageView `json:"transcript"`
	Status     []StatusLine  `json:"status"`
}

// CurrentView returns the rendered session's view model. The underlying
// snapshot is taken under the multiplexer lock, so the model is always
// internally consistent even while events stream in.
func (s *Service) CurrentView() ViewModel {
	snap := s.client.View()

	return ViewModel{
		SessionID:       snap.SessionID,
		Title:           snap.Header.Title,
		Busy:            snap.Flags.Busy(),
		Thinking:        snap.Header.Thinking,
		TaskID:          snap.Header.TaskID,
		Model:           snap.Header.Model,
		Provider:        snap.Header.Provider,
		InputTokens:     snap.Header.InputTokens,
		OutputTokens:    snap.Header.OutputTokens,
		TotalTokens:     snap.Header.InputTokens + snap.Header.OutputTokens,
		Cost:            snap.Header.Cost,
		KnowledgeBanner: snap.Header.KnowledgeBanner,
		Transcript: lo.Map(snap.Transcript, func(e viewstate.TranscriptEntry, _ int) MessageView {
			return MessageView{
				Role:        e.Role,
				Content:     e.Content,
				Attachments: e.Attachments,
				Turn:        e.Turn,
				Error:       e.Error,
			}
		}),
		Status: lo.Map(snap.Status, func(e viewstate.StatusEntry, _ int) StatusLine {
			return StatusLine{Kind: e.Kind, Text: e.Text, At: e.At}
		}),
	}
}
