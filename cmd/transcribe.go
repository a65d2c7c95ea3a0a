package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adrianngzz/bisonbytes25-v1/adapters/stt"
	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
)

func newTranscribeCommand() *cobra.Command {
	var (
		audioConfig repositories.AudioConfig
		useMock     bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe a recorded audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			audio, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read audio file: %w", err)
			}

			transcriber := newTranscriber(cfg, logger)
			if useMock {
				transcriber = stt.NewMockSpeechToText(logger)
			}

			transcript, err := transcriber.TranscribeAudio(cmd.Context(), audio, audioConfig)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), transcript)
			return nil
		},
	}

	cmd.Flags().StringVar(&audioConfig.Encoding, "encoding", stt.DefaultEncoding, "audio encoding (WEBM_OPUS, LINEAR16, FLAC, OGG_OPUS, ...)")
	cmd.Flags().IntVar(&audioConfig.SampleRate, "sample-rate", stt.DefaultSampleRate, "sample rate in hertz")
	cmd.Flags().StringVar(&audioConfig.Language, "language", stt.DefaultLanguage, "BCP-47 language code")
	cmd.Flags().BoolVar(&useMock, "mock", false, "use the canned transcriber instead of Google")
	return cmd
}
