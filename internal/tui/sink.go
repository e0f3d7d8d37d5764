package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/livecap/internal/model"
)

// CaptionMsg delivers a new caption to the model.
type CaptionMsg struct {
	Event model.CaptionEvent
}

// StatusMsg delivers a controller status change to the model.
type StatusMsg struct {
	Status model.Status
}

type actionErrMsg struct {
	err error
}

// Sink forwards controller output into a running program.
type Sink struct {
	send func(tea.Msg)
}

// NewSink returns a Sink that posts messages with send, usually
// (*tea.Program).Send.
func NewSink(send func(tea.Msg)) Sink {
	return Sink{send: send}
}

// Caption implements the controller sink.
func (s Sink) Caption(ev model.CaptionEvent) {
	s.send(CaptionMsg{Event: ev})
}

// Status implements the controller sink.
func (s Sink) Status(st model.Status) {
	s.send(StatusMsg{Status: st})
}
