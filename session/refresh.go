package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/go-blog-admin/internal/errors"
)

// refreshTransport turns an "Invalid token" 401 into one refresh and one retry of the
// original request. A "No session user provided" 401 ends the session.
func (m *Manager) refreshTransport(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		req, err := bufferBody(req)
		if err != nil {
			return nil, err
		}
		gen, _ := m.currentGeneration()

		resp, err := next.RoundTrip(req)
		if err != nil || resp.StatusCode != http.StatusUnauthorized {
			return resp, err
		}
		ctx := req.Context()
		if ctx.Err() != nil {
			return resp, nil
		}

		message, resp, err := peekMessage(resp)
		if err != nil {
			return nil, err
		}
		switch message {
		case InvalidTokenMessage:
			if IsRetry(ctx) {
				return resp, nil
			}
			return m.retryAfterRefresh(req, resp, gen)
		case NoSessionMessage:
			m.forceLogout(gen, LogoutNoSession, apperrors.ErrNoSession)
		}
		return resp, nil
	})
}

func (m *Manager) retryAfterRefresh(req *http.Request, original *http.Response, gen uint64) (*http.Response, error) {
	ctx := req.Context()
	currentGen, current := m.currentGeneration()
	if current == "" || currentGen != gen {
		return original, nil
	}
	if sent := bearerToken(req); sent != current {
		log.Debug().Msg("token already refreshed, retrying with the current token")
		return m.reissue(req, original, current)
	}

	key := "refresh-" + strconv.FormatUint(gen, 10)
	if !m.coalesce {
		key += "-" + uuid.NewString()
	}
	ch := m.refreshG.DoChan(key, func() (any, error) {
		return m.refresh(gen)
	})

	select {
	case <-ctx.Done():
		original.Body.Close()
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return original, nil
		}
		return m.reissue(req, original, res.Val.(string))
	}
}

// reissue sends req again through the managed chain, marked as a retry and carrying token.
func (m *Manager) reissue(req *http.Request, original *http.Response, token string) (*http.Response, error) {
	retry := markRetried(req)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return original, nil
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+token)
	original.Body.Close()
	return m.client.Transport.RoundTrip(retry)
}

// refresh exchanges the refresh cookie for a new access token and stores it in the
// scope that holds the session. Failure ends the session for gen.
func (m *Manager) refresh(gen uint64) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.requestTimeout())
	defer cancel()

	token, err := m.requestRefresh(ctx)
	if err != nil {
		m.forceLogout(gen, LogoutSessionExpired, &apperrors.SessionExpiredError{Cause: err})
		return "", err
	}

	m.mu.Lock()
	if m.generation != gen || m.token == "" {
		m.mu.Unlock()
		return "", errSessionChanged
	}
	scope := m.state.Scope
	if err := m.persist(scope, token); err != nil {
		log.Err(err).Str("scope", scope.String()).Msg("failed to persist refreshed token")
	}
	m.token = token
	m.mu.Unlock()

	log.Debug().Str("scope", scope.String()).Msg("access token refreshed")
	return token, nil
}

func (m *Manager) requestRefresh(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL(RouteRefresh), nil)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.refresh] build request")
	}
	resp, err := m.raw.Do(req)
	if err != nil {
		return "", &apperrors.NetworkError{Op: "refresh", URL: m.apiURL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &apperrors.APIError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", errors.Wrap(err, "[Manager.refresh] decode response")
	}
	if tr.AccessToken == "" {
		return "", apperrors.ErrMissingAccessToken
	}
	return tr.AccessToken, nil
}

// bufferBody makes the request body replayable so a retry can send it again.
func bufferBody(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return req, nil
	}
	b, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, errors.Wrap(err, "[bufferBody] read request body")
	}
	buffered := req.Clone(req.Context())
	buffered.Body = io.NopCloser(bytes.NewReader(b))
	buffered.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	buffered.ContentLength = int64(len(b))
	return buffered, nil
}

// peekMessage reads the message of a 401 body without consuming it. At most
// maxMessageBytes are inspected and the returned response still carries the whole body.
func peekMessage(resp *http.Response) (string, *http.Response, error) {
	body := resp.Body
	b, err := io.ReadAll(io.LimitReader(body, maxMessageBytes))
	if err != nil {
		body.Close()
		return "", nil, errors.Wrap(err, "[peekMessage] read response body")
	}
	resp.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(b), body), Closer: body}

	var mr messageResponse
	if err := json.Unmarshal(b, &mr); err != nil {
		return "", resp, nil
	}
	return mr.Message, resp, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}
