package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	pollhttp "pollgov/contexts/governance/poll-manager/transport/http"
)

const principalHeader = "X-Principal"

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req pollhttp.CreatePollRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.polls.Handler.CreatePollHandler(r.Context(), caller, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdatePoll(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	pollID, ok := requirePollID(w, r)
	if !ok {
		return
	}
	var req pollhttp.UpdatePollRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.polls.Handler.UpdatePollHandler(r.Context(), caller, pollID, req); err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pollhttp.OKResponse{OK: true})
}

func (s *Server) handleSetAuthority(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req pollhttp.SetAuthorityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.polls.Handler.SetAuthorityHandler(r.Context(), caller, req); err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pollhttp.OKResponse{OK: true})
}

func (s *Server) handleSetCreationFee(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req pollhttp.SetCreationFeeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.polls.Handler.SetCreationFeeHandler(r.Context(), caller, req); err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pollhttp.OKResponse{OK: true})
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	pollID, ok := requirePollID(w, r)
	if !ok {
		return
	}
	var req pollhttp.CastVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.polls.Handler.CastVoteHandler(r.Context(), caller, pollID, req); err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pollhttp.OKResponse{OK: true})
}

func (s *Server) handleRevealVote(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	pollID, ok := requirePollID(w, r)
	if !ok {
		return
	}
	var req pollhttp.RevealVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.polls.Handler.RevealVoteHandler(r.Context(), caller, pollID, req); err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pollhttp.OKResponse{OK: true})
}

func (s *Server) handleFinalizePoll(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	pollID, ok := requirePollID(w, r)
	if !ok {
		return
	}
	resp, err := s.polls.Handler.FinalizePollHandler(r.Context(), caller, pollID)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCommitment(w http.ResponseWriter, r *http.Request) {
	var req pollhttp.CommitmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.polls.Handler.CommitmentHandler(r.Context(), req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := requirePollID(w, r)
	if !ok {
		return
	}
	resp, err := s.polls.Handler.GetPollHandler(r.Context(), pollID)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPollUpdate(w http.ResponseWriter, r *http.Request) {
	pollID, ok := requirePollID(w, r)
	if !ok {
		return
	}
	resp, err := s.polls.Handler.GetPollUpdateHandler(r.Context(), pollID)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePollCount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.PollCountHandler(r.Context())
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePollExists(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writePollError(w, http.StatusBadRequest, "missing_title", "title query parameter is required", 0, "")
		return
	}
	resp, err := s.polls.Handler.PollExistenceHandler(r.Context(), title)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	pollID, ok := requirePollID(w, r)
	if !ok {
		return
	}
	resp, err := s.polls.Handler.TallyHandler(r.Context(), pollID)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoteStatus(w http.ResponseWriter, r *http.Request) {
	pollID, ok := requirePollID(w, r)
	if !ok {
		return
	}
	resp, err := s.polls.Handler.VoteStatusHandler(r.Context(), pollID, r.PathValue("voter"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.SettingsHandler(r.Context())
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requirePrincipal(w http.ResponseWriter, r *http.Request) (string, bool) {
	principal := strings.TrimSpace(r.Header.Get(principalHeader))
	if principal == "" {
		writePollError(w, http.StatusUnauthorized, "missing_principal", principalHeader+" header is required", 0, "")
		return "", false
	}
	return principal, true
}

func requirePollID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	pollID, err := strconv.ParseUint(r.PathValue("poll_id"), 10, 64)
	if err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_poll_id", "poll_id must be an unsigned integer", 0, "")
		return 0, false
	}
	return pollID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", 0, "")
		return false
	}
	return true
}

func pollStatus(kind domainerrors.Kind) int {
	switch kind {
	case domainerrors.KindAuthorization:
		return http.StatusForbidden
	case domainerrors.KindValidation:
		return http.StatusBadRequest
	case domainerrors.KindNotFound:
		return http.StatusNotFound
	case domainerrors.KindProtocol:
		return http.StatusUnprocessableEntity
	case domainerrors.KindStateConflict,
		domainerrors.KindTemporal,
		domainerrors.KindQuorum,
		domainerrors.KindAnomaly:
		return http.StatusConflict
	case domainerrors.KindTransfer:
		return http.StatusFailedDependency
	default:
		return http.StatusInternalServerError
	}
}

func writePollDomainError(w http.ResponseWriter, err error) {
	kind := domainerrors.KindOf(err)
	status := pollStatus(kind)
	if status == http.StatusInternalServerError {
		writePollError(w, status, "internal_error", "internal server error", 0, "")
		return
	}
	writePollError(w, status, string(kind), err.Error(), domainerrors.CodeOf(err), string(kind))
}

func writePollError(w http.ResponseWriter, status int, code string, message string, errorCode int, kind string) {
	writeJSON(w, status, pollhttp.ErrorResponse{
		Code:      code,
		Message:   message,
		ErrorCode: errorCode,
		Kind:      kind,
	})
}
