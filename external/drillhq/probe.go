package drillhq

import (
	"context"
	"net/http"
	"net/url"

	crerr "github.com/cockroachdb/errors"
	sonic "github.com/bytedance/sonic"
)

// ErrNoCandidates means the probe was invoked with an empty candidate set,
// which is a configuration mistake rather than an upstream outage.
var ErrNoCandidates = crerr.New("no candidate endpoints configured")

// Candidate is one plausible shape of an upstream operation. The backend's
// actual endpoint surface is not reliably known, so each intent carries an
// ordered list of candidates and the prober tries them until one answers.
// Candidates are plain data: extending a set never touches control flow.
type Candidate struct {
	Method string
	Path   string
	Body   any
}

// ProbeResult is the outcome of walking one candidate set.
type ProbeResult struct {
	// OK is true when some candidate returned a structurally valid success:
	// a 2xx status whose payload either omits the success flag or sets it true.
	OK bool
	// Env holds the decoded envelope of the succeeding candidate.
	Env envelope
	// Tried counts the candidates attempted, successes included.
	Tried int
	// LastErr is the most recent per-candidate failure, kept for diagnostics.
	// It is informational: exhaustion is reported through OK, not an error.
	LastErr error
}

// probe walks the candidates in order and stops at the first structurally
// valid success. Per-candidate failures (network errors, non-2xx statuses,
// undecodable or success=false payloads) are recorded and the next candidate
// is tried. Probing is sequential so request ordering stays predictable
// against an unstable backend. A context cancellation aborts the walk and is
// the only condition reported as an error.
func (c *Client) probe(ctx context.Context, candidates []Candidate) (ProbeResult, error) {
	if len(candidates) == 0 {
		return ProbeResult{}, ErrNoCandidates
	}

	out := ProbeResult{}
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.Tried++

		var body []byte
		if candidate.Body != nil {
			encoded, err := sonic.Marshal(candidate.Body)
			if err != nil {
				out.LastErr = crerr.Wrapf(err, "marshal body for %s", candidate.Path)
				continue
			}
			body = encoded
		}

		status, payload, err := c.transport.Do(ctx, candidate.Method, c.baseURL+candidate.Path, body)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			out.LastErr = err
			c.logger.DebugContext(ctx, "candidate endpoint failed",
				"method", candidate.Method,
				"path", candidate.Path,
				"error", err,
			)
			continue
		}

		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			out.LastErr = crerr.Newf("candidate %s %s returned status %d", candidate.Method, candidate.Path, status)
			c.logger.DebugContext(ctx, "candidate endpoint rejected",
				"method", candidate.Method,
				"path", candidate.Path,
				"status", status,
			)
			continue
		}

		env, err := parseEnvelope(payload)
		if err != nil {
			out.LastErr = crerr.Wrapf(err, "decode payload from %s", candidate.Path)
			continue
		}
		if !env.ok() {
			out.LastErr = crerr.Newf("candidate %s reported success=false: %s", candidate.Path, env.Message)
			continue
		}

		out.OK = true
		out.Env = env
		return out, nil
	}

	return out, nil
}

func eventAssignmentReadCandidates(eventID string) []Candidate {
	escaped := url.PathEscape(eventID)
	query := url.QueryEscape(eventID)
	return []Candidate{
		{Method: http.MethodGet, Path: "/events/" + escaped + "/users"},
		{Method: http.MethodGet, Path: "/event-users?event_id=" + query},
		{Method: http.MethodGet, Path: "/assignments?event_id=" + query},
		{Method: http.MethodGet, Path: "/event-judges?event_id=" + query},
	}
}

func eventAssignmentWriteCandidates(eventID string, payload map[string]any) []Candidate {
	escaped := url.PathEscape(eventID)
	return []Candidate{
		{Method: http.MethodPost, Path: "/events/" + escaped + "/users", Body: payload},
		{Method: http.MethodPost, Path: "/event-users", Body: payload},
		{Method: http.MethodPost, Path: "/assign-judges", Body: payload},
		{Method: http.MethodPost, Path: "/assignments", Body: payload},
		{Method: http.MethodPost, Path: "/event/" + escaped + "/assign-judges", Body: payload},
	}
}

func eventAssignmentRemoveCandidates(eventID, personID string) []Candidate {
	escapedEvent := url.PathEscape(eventID)
	escapedPerson := url.PathEscape(personID)
	return []Candidate{
		{Method: http.MethodDelete, Path: "/events/" + escapedEvent + "/users/" + escapedPerson},
		{Method: http.MethodDelete, Path: "/event-users?event_id=" + url.QueryEscape(eventID) + "&user_id=" + url.QueryEscape(personID)},
		{Method: http.MethodDelete, Path: "/assignments?event_id=" + url.QueryEscape(eventID) + "&user_id=" + url.QueryEscape(personID)},
	}
}

func eventListCandidates() []Candidate {
	return []Candidate{
		{Method: http.MethodGet, Path: "/events"},
		{Method: http.MethodGet, Path: "/event"},
	}
}

func userListCandidates() []Candidate {
	return []Candidate{
		{Method: http.MethodGet, Path: "/users"},
		{Method: http.MethodGet, Path: "/user"},
	}
}
