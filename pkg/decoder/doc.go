// ABOUTME: Streaming audio decode pipeline
// ABOUTME: Decodes a URI or byte stream into per-channel float32 PCM with credit backpressure
// Package decoder decodes compressed audio into per-channel float32 PCM and
// delivers it incrementally through callbacks.
//
// A session discovers the source's format at runtime, reports the channel
// count through OnReady, then delivers one ChannelBuffer per channel per
// decoded block through OnProgress, resampled to Options.TargetSampleRate.
// Exactly one of OnEOS or OnError ends the session, and nothing is delivered
// after it.
//
// The consumer paces the decoder with credits: each channel emits at most
// CreditWindow buffers before waiting for a Credit on the channel passed to
// Decode. A consumer that grants one credit per CreditWindow buffers it has
// finished with keeps every channel moving.
//
// Example:
//
//	credits := make(chan decoder.Credit, 16)
//	decoder.Decode(ctx, decoder.Request{Source: decoder.Source{URI: "song.flac"}}, credits,
//	    decoder.Callbacks{
//	        OnReady:    func(n uint32) { ... },
//	        OnProgress: func(buf *audio.ChannelBuffer, ch uint32) { ... },
//	        OnEOS:      func() { ... },
//	        OnError:    func(err error) { ... },
//	    },
//	    decoder.Options{TargetSampleRate: 48000})
package decoder
