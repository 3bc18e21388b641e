package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"moovzmatch/app/client/speechkit"

	"golang.org/x/sync/errgroup"
)

// SpeechStream opens streaming transcription sessions.
type SpeechStream interface {
	Start(ctx context.Context) (SpeechHandle, error)
}

// SpeechHandle is one open transcription stream. Satisfied by the recognizer
// client's handle.
type SpeechHandle interface {
	SendConfig() error
	Send(content []byte) error
	CloseSend() error
	Recv() ([]speechkit.Event, error)
	Close() error
}

// ensureSpeech starts the speech pump for the current run, once. It is a
// no-op before the run begins or after the audio channel is closed.
func (s *Session) ensureSpeech() {
	s.mu.Lock()
	if s.speechDone != nil || s.runCtx == nil || s.audioClosed {
		s.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(s.runCtx)
	done := make(chan struct{})
	s.speechCancel = cancel
	s.speechDone = done
	audioCh := s.audioCh
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		if err := s.pumpSpeech(ctx, audioCh); err != nil && ctx.Err() == nil {
			slog.Error("Speech transcription stream failed",
				"session", s.ID,
				"error", err)
		}
	}()
}

// pumpSpeech feeds buffered audio into the recognizer and forwards transcript
// events into the evidence store. A closed audio channel half-closes the
// stream; the receive side then drains remaining results until the recognizer
// ends the stream.
func (s *Session) pumpSpeech(ctx context.Context, audio <-chan []byte) error {
	handle, err := s.deps.Speech.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start recognizer stream: %w", err)
	}
	defer handle.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := handle.SendConfig(); err != nil {
			return fmt.Errorf("failed to send session options: %w", err)
		}

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case chunk, ok := <-audio:
				if !ok {
					return handle.CloseSend()
				}
				if err := handle.Send(chunk); err != nil {
					return fmt.Errorf("failed to send audio chunk: %w", err)
				}
			}
		}
	})

	g.Go(func() error {
		for {
			events, err := handle.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}

			for _, ev := range events {
				s.onTranscript(ev)
			}
		}
	})

	return g.Wait()
}
