// Package voice runs a spoken chat turn end to end.
//
// A turn moves through fixed states with no branching and no retries:
//
//	RECEIVE -> TRANSCRIBE -> GENERATE -> SYNTHESIZE -> COMPLETE
//
// RECEIVE stores the upload in a per-request scratch space, TRANSCRIBE turns
// it into text, GENERATE asks the model gateway for a reply with an empty
// context and SYNTHESIZE speaks the cleaned reply. Any failure moves the turn
// to FAILED and is returned as a *StageError naming the state; partial
// results are never returned. The scratch space is removed on every exit.
//
// # Usage
//
//	pipeline, err := voice.New(transcriber, gatewayClient, piper,
//	    voice.WithScratchDir(os.TempDir()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := pipeline.Run(ctx, voice.Upload{Filename: "nota.ogg", Audio: data})
//	// result.Text is the reply, result.Audio the base64 WAV
//
// # Latency
//
// Each state's duration is recorded in the turn's Metrics, kept by a
// MetricsCollector for averaging, and exported as Prometheus histograms.
package voice
