package stt

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

type GoogleSpeech struct {
	c *speech.Client

	Language     string
	SampleRateHz int32
}

func NewGoogleSpeech(ctx context.Context, language string) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if language == "" {
		language = "en-US"
	}
	return &GoogleSpeech{
		c:            c,
		Language:     language,
		SampleRateHz: 48000,
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func encodingFor(format string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "webm", "webm_opus":
		return speechpb.RecognitionConfig_WEBM_OPUS
	case "ogg", "ogg_opus", "opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "flac":
		return speechpb.RecognitionConfig_FLAC
	case "wav", "linear16", "pcm":
		return speechpb.RecognitionConfig_LINEAR16
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encodingFor(format),
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               g.Language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", err
	}

	var bestText string
	var bestConf float32
	for _, r := range resp.Results {
		for _, alt := range r.Alternatives {
			if alt.Transcript != "" && alt.Confidence >= bestConf {
				bestText = alt.Transcript
				bestConf = alt.Confidence
			}
		}
	}
	return bestText, nil
}
