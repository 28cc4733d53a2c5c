// Package stream runs the live duplex exchange of a reflection session.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/mindful-journal/internal/domain"
	"github.com/Rrens/mindful-journal/internal/speech"
)

// Outbound event types
const (
	EventTranscript = "transcript"
	EventQuestion   = "question"
	EventComplete   = "complete"
)

const closeGracePeriod = time.Second

// Event is a JSON message sent to the client. Transcript and question
// events always carry text, even when it is empty.
type Event struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	if e.Type == EventComplete {
		return json.Marshal(struct {
			Type string `json:"type"`
		}{e.Type})
	}
	type plain Event
	return json.Marshal(plain(e))
}

// Conn is the duplex channel of one client. *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// MessageStore persists the turns of a session
type MessageStore interface {
	AppendUserMessage(ctx context.Context, sessionID int64, content string) (*domain.Message, error)
	AppendAssistantMessage(ctx context.Context, sessionID int64, content string) (*domain.Message, error)
}

// Questioner hands out the next question of a session
type Questioner interface {
	NextQuestion(ctx context.Context, sessionID int64) (string, bool, error)
}

// Dependencies are the collaborators shared by all stream sessions
type Dependencies struct {
	Messages    MessageStore
	Questions   Questioner
	Transcriber speech.Transcriber
	// Synthesizer is nil when spoken questions are disabled
	Synthesizer speech.Synthesizer
}

// Session drives one connection bound to one session id
type Session struct {
	id     int64
	conn   Conn
	deps   Dependencies
	logger zerolog.Logger

	closeOnce sync.Once
}

// NewSession binds conn to sessionID
func NewSession(sessionID int64, conn Conn, deps Dependencies) *Session {
	return &Session{
		id:   sessionID,
		conn: conn,
		deps: deps,
		logger: log.With().
			Int64("session_id", sessionID).
			Str("conn_id", uuid.NewString()).
			Logger(),
	}
}

// Run processes inbound chunks until the questions are exhausted, the client
// disconnects, a store operation fails or ctx is cancelled. The connection is
// closed when Run returns.
func (s *Session) Run(ctx context.Context) {
	defer s.close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.close()
		case <-done:
		}
	}()

	s.logger.Debug().Msg("stream opened")

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.logDisconnect(err)
			return
		}
		if len(data) == 0 {
			continue
		}

		finished, err := s.handleChunk(ctx, data)
		if err != nil {
			if !isDisconnect(err) {
				s.logger.Error().Err(err).Msg("stream stopped")
			}
			return
		}
		if finished {
			s.logger.Debug().Msg("conversation complete")
			return
		}
	}
}

func (s *Session) handleChunk(ctx context.Context, chunk []byte) (finished bool, err error) {
	text, err := s.deps.Transcriber.Transcribe(ctx, chunk)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		s.logger.Warn().Err(err).Int("bytes", len(chunk)).Msg("transcription failed, chunk skipped")
		return false, nil
	}

	if _, err := s.deps.Messages.AppendUserMessage(ctx, s.id, text); err != nil {
		return false, err
	}
	if err := s.send(Event{Type: EventTranscript, Text: text}); err != nil {
		return false, err
	}

	question, ok, err := s.deps.Questions.NextQuestion(ctx, s.id)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, s.send(Event{Type: EventComplete})
	}

	if _, err := s.deps.Messages.AppendAssistantMessage(ctx, s.id, question); err != nil {
		return false, err
	}
	if err := s.send(Event{Type: EventQuestion, Text: question}); err != nil {
		return false, err
	}

	return false, s.speak(ctx, question)
}

func (s *Session) speak(ctx context.Context, question string) error {
	if s.deps.Synthesizer == nil {
		return nil
	}

	audio, err := s.deps.Synthesizer.Synthesize(ctx, question)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn().Err(err).Msg("speech synthesis failed")
		return nil
	}
	if len(audio) == 0 {
		return nil
	}

	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return disconnectError{err}
	}
	return nil
}

func (s *Session) send(event Event) error {
	if err := s.conn.WriteJSON(event); err != nil {
		return disconnectError{err}
	}
	return nil
}

// close ends the connection once. Errors are ignored since the peer may
// already be gone.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		_ = s.conn.Close()
		s.logger.Debug().Msg("stream closed")
	})
}

func (s *Session) logDisconnect(err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		s.logger.Info().Err(err).Msg("client disconnected unexpectedly")
		return
	}
	s.logger.Debug().Msg("client closed stream")
}

// disconnectError marks a failed write to the client
type disconnectError struct {
	err error
}

func (e disconnectError) Error() string { return "stream write failed: " + e.err.Error() }
func (e disconnectError) Unwrap() error { return e.err }

func isDisconnect(err error) bool {
	var de disconnectError
	return errors.As(err, &de) || errors.Is(err, context.Canceled)
}
