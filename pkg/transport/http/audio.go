package http

import (
	"crypto/sha256"
	"encoding/binary"
	"io"
	"net/http"
	"strings"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/debug"
	"github.com/prompt-arena/arena/pkg/transport"
)

// The audio surface is a stub: it accepts the real request shapes but
// produces deterministic placeholder output, so clients can integrate
// against it before a speech backend exists.

// cannedTranscripts are the possible transcription results. The upload's
// content hash selects one, so the same file always transcribes the same.
var cannedTranscripts = []string{
	"Compare the strengths of different language models for creative writing.",
	"What are the trade-offs between latency and quality in model serving?",
	"Summarize the key differences between the configured providers.",
	"Explain how prompt phrasing changes model behavior.",
}

// transcribeResponse is the body of POST /v1/transcribe.
type transcribeResponse struct {
	Text string `json:"text"`
}

// speechRequest is the body of POST /v1/speech.
type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// handleTranscribe handles POST /v1/transcribe. It expects a multipart
// form with the audio in the "audio" field.
func (a *Adapter) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be multipart/form-data"),
			http.StatusUnsupportedMediaType,
		)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	file, header, err := r.FormFile("audio")
	if err != nil {
		transport.WriteAPIError(w, api.NewInvalidRequestError("audio", "audio file is required"))
		return
	}
	defer file.Close()

	hash := sha256.New()
	size, err := io.Copy(hash, file)
	if err != nil {
		transport.WriteAPIError(w, api.NewInvalidRequestError("audio", "reading audio file failed"))
		return
	}
	if size == 0 {
		transport.WriteAPIError(w, api.NewInvalidRequestError("audio", "audio file is empty"))
		return
	}

	digest := hash.Sum(nil)
	idx := binary.BigEndian.Uint32(digest[:4]) % uint32(len(cannedTranscripts))

	debug.Log("transport", "transcription served",
		"filename", header.Filename,
		"size", size,
	)

	writeJSON(w, http.StatusOK, transcribeResponse{Text: cannedTranscripts[idx]})
}

// Silent WAV parameters: 8 kHz mono 16-bit PCM.
const (
	wavSampleRate = 8000
	wavSeconds    = 1
)

// handleSpeech handles POST /v1/speech. It returns a silent WAV clip
// regardless of the requested text.
func (a *Adapter) handleSpeech(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[speechRequest](a, w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		transport.WriteAPIError(w, api.NewInvalidRequestError("text", "text is required"))
		return
	}

	clip := silentWAV(wavSampleRate, wavSeconds)

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	w.Write(clip)
}

// silentWAV builds a PCM WAV file of the given duration containing only
// zero samples.
func silentWAV(sampleRate, seconds int) []byte {
	dataLen := sampleRate * seconds * 2 // 16-bit mono

	buf := make([]byte, 44+dataLen)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(buf[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], 2)                    // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16)                   // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	return buf
}
