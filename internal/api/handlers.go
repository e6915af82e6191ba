package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fairdice/seedsearch/internal/registry"
	"github.com/fairdice/seedsearch/internal/search"
	"github.com/fairdice/seedsearch/internal/wordlist"
)

// maxUploadBytes bounds in-memory wordlist uploads.
const maxUploadBytes = 64 << 20

// errUploadTooLarge reports an upload past maxUploadBytes. Truncating
// instead would corrupt the candidate at the cut and drop the rest,
// turning a real match into finished_no_match.
var errUploadTooLarge = errors.New("wordlist upload exceeds the 64 MiB limit")

// startProcess handles POST /process. It accepts a multipart or
// urlencoded form with hashedSeed, clientSeed, nonce, optional speed,
// and a candidate source: file field "wordlist" or inline field
// "wordlistText".
func (s *Server) startProcess(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form payload")
		return
	}

	hashedSeed := strings.TrimSpace(r.FormValue("hashedSeed"))
	clientSeed := strings.TrimSpace(r.FormValue("clientSeed"))
	nonceStr := strings.TrimSpace(r.FormValue("nonce"))
	if hashedSeed == "" || clientSeed == "" || nonceStr == "" {
		writeError(w, http.StatusBadRequest, "missing required fields (hashedSeed, clientSeed, nonce)")
		return
	}
	nonce, err := strconv.ParseInt(nonceStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "nonce must be an integer")
		return
	}

	// Absent or non-numeric rate caps fall back to the configured
	// default rather than failing the request. An explicit 0 passes
	// through and runs the search unthrottled.
	maxRate := s.cfg.Search.DefaultRatePerMinute
	if speedStr := strings.TrimSpace(r.FormValue("speed")); speedStr != "" {
		if parsed, err := strconv.Atoi(speedStr); err == nil {
			maxRate = parsed
		}
	}

	source, ok, err := s.readSource(r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errUploadTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "no wordlist provided")
		return
	}

	jobID, err := s.jobs.Create(source.Candidates, source.Skipped, search.Params{
		TargetDigest:     hashedSeed,
		ClientSeed:       clientSeed,
		Nonce:            nonce,
		MaxRatePerMinute: maxRate,
	})
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrTooManyJobs):
			writeError(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, registry.ErrClosed):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.logger.Error("job creation failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create job")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job_id": jobID})
}

// readSource extracts candidates from the uploaded file or the inline
// text field. ok is false when neither source is present.
func (s *Server) readSource(r *http.Request) (wordlist.Result, bool, error) {
	file, header, err := r.FormFile("wordlist")
	if err == nil {
		defer file.Close()
		data, readErr := readUpload(file, maxUploadBytes)
		if readErr != nil {
			return wordlist.Result{}, true, readErr
		}
		res, readErr := wordlist.Read(data, header.Filename)
		if readErr != nil {
			return wordlist.Result{}, true, readErr
		}
		return res, true, nil
	}
	if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return wordlist.Result{}, true, errors.New("failed to read wordlist upload")
	}

	if _, present := r.Form["wordlistText"]; !present {
		return wordlist.Result{}, false, nil
	}
	lines := wordlist.ReadText(r.FormValue("wordlistText"))
	if len(lines) == 0 {
		return wordlist.Result{}, true, wordlist.ErrUnreadableSource
	}
	return wordlist.Result{Candidates: lines}, true, nil
}

// readUpload reads at most limit bytes and fails on anything larger
// rather than handing a truncated prefix to the wordlist reader.
func readUpload(file io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, errors.New("failed to read wordlist upload")
	}
	if int64(len(data)) > limit {
		return nil, errUploadTooLarge
	}
	return data, nil
}

// getProgress handles GET /progress/{job_id}.
func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	snap, err := s.jobs.Snapshot(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, toProgressDTO(snap))
}

// pauseJob handles GET/POST /pause/{job_id}.
func (s *Server) pauseJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if err := s.jobs.Pause(jobID); err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused", "job_id": jobID})
}

// resumeJob handles GET/POST /resume/{job_id}.
func (s *Server) resumeJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if err := s.jobs.Resume(jobID); err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resumed", "job_id": jobID})
}

func parseForm(r *http.Request) error {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		return r.ParseMultipartForm(maxUploadBytes)
	}
	return r.ParseForm()
}

// progressDTO mirrors the external progress contract field for field.
type progressDTO struct {
	Processed int           `json:"processed"`
	Total     int           `json:"total"`
	Speed     float64       `json:"speed"`
	ETA       *int64        `json:"eta"`
	Done      bool          `json:"done"`
	Match     *string       `json:"match"`
	Roll      *float64      `json:"roll"`
	Status    search.Status `json:"status"`
}

func toProgressDTO(snap search.Snapshot) progressDTO {
	return progressDTO{
		Processed: snap.Processed,
		Total:     snap.Total,
		Speed:     snap.SpeedPerMinute,
		ETA:       snap.ETASeconds,
		Done:      snap.Done,
		Match:     snap.Match,
		Roll:      snap.Outcome,
		Status:    snap.Status,
	}
}
