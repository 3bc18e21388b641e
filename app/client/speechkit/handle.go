package speechkit

import (
	"context"
	"fmt"
	"moovzmatch/app/config"
	"strings"

	"github.com/yandex-cloud/go-genproto/yandex/cloud/ai/stt/v3"
)

// Event is one transcript update from the recognizer. Partial events replace
// each other until a final event closes the utterance.
type Event struct {
	Text    string
	IsFinal bool
}

type Handle struct {
	cfg    *config.Config
	client stt.Recognizer_RecognizeStreamingClient
	cancel context.CancelFunc
}

func (h *Handle) Send(content []byte) error {
	var req stt.StreamingRequest
	req.SetChunk(&stt.AudioChunk{
		Data: content,
	})

	return h.client.Send(&req)
}

func (h *Handle) SendConfig() error {
	var audioFormatOpts stt.AudioFormatOptions
	audioFormatOpts.SetRawAudio(&stt.RawAudio{
		AudioEncoding:     stt.RawAudio_LINEAR16_PCM,
		SampleRateHertz:   16000,
		AudioChannelCount: 1,
	})

	var eouClassifier stt.EouClassifierOptions
	eouClassifier.SetDefaultClassifier(&stt.DefaultEouClassifier{
		Type:                       stt.DefaultEouClassifier_HIGH,
		MaxPauseBetweenWordsHintMs: 500,
	})

	var req stt.StreamingRequest
	req.SetSessionOptions(&stt.StreamingOptions{
		RecognitionModel: &stt.RecognitionModelOptions{
			Model:       h.cfg.Yandex.SpeechKit.Model,
			AudioFormat: &audioFormatOpts,
			LanguageRestriction: &stt.LanguageRestrictionOptions{
				RestrictionType: stt.LanguageRestrictionOptions_WHITELIST,
				LanguageCode:    []string{h.cfg.Yandex.SpeechKit.Language},
			},
		},
		EouClassifier: &eouClassifier,
	})

	return h.client.Send(&req)
}

// Recv blocks for the next recognizer response and maps it onto transcript
// events. Responses carrying neither partials nor finals yield nil.
func (h *Handle) Recv() ([]Event, error) {
	res, err := h.client.Recv()
	if err != nil {
		return nil, fmt.Errorf("failed to receive stt: %w", err)
	}

	if partial := res.GetPartial(); partial != nil {
		return collectAlternatives(partial.Alternatives, false), nil
	}

	if final := res.GetFinal(); final != nil {
		return collectAlternatives(final.Alternatives, true), nil
	}

	return nil, nil
}

// collectAlternatives keeps the first non-empty alternative; the rest are
// lower-confidence rescorings of the same audio.
func collectAlternatives(alternatives []*stt.Alternative, isFinal bool) []Event {
	for _, alt := range alternatives {
		text := strings.TrimSpace(alt.Text)
		if text == "" {
			continue
		}

		return []Event{{
			Text:    text,
			IsFinal: isFinal,
		}}
	}

	return nil
}

// CloseSend half-closes the stream. The recognizer keeps delivering pending
// results until it ends the stream itself.
func (h *Handle) CloseSend() error {
	return h.client.CloseSend()
}

func (h *Handle) Close() error {
	h.cancel()
	return nil
}
