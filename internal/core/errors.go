// ABOUTME: Error values and display helpers for the session core
// ABOUTME: Backend failures become visible error turns instead of breaking the session
package core

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrBusy is returned when a send or load is already in flight
	ErrBusy = errors.New("session busy: a request is already in flight")

	// ErrEmptyMessage is returned when asked to send blank text
	ErrEmptyMessage = errors.New("message cannot be empty")
)

// userMessager is implemented by errors that carry text meant for the operator
type userMessager interface {
	UserMessage() string
}

// HumanMessage turns err into text suitable for an error turn or banner
func HumanMessage(err error) string {
	if err == nil {
		return ""
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "the server took too long to respond"
	case errors.Is(err, context.Canceled):
		return "the request was cancelled"
	}
	return err.Error()
}

func sendErrorText(err error) string {
	return "❌ Something went wrong: " + HumanMessage(err)
}

func loadErrorText(err error) string {
	return "❌ Failed to load conversation history: " + HumanMessage(err)
}
