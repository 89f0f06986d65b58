package httpapi

import (
	"net/http"

	"github.com/splitbook/splitbook/internal/middleware"
	"github.com/splitbook/splitbook/internal/models"
)

type createGroupRequest struct {
	Name string `json:"name"`
}

type groupResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"created_by"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

func toGroupResponse(g *models.Group) groupResponse {
	return groupResponse{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		Members:   g.Members,
		CreatedAt: g.CreatedAt,
	}
}

type inviteRequest struct {
	Email string `json:"email"`
}

type respondInvitationRequest struct {
	Accept bool `json:"accept"`
}

type invitationResponse struct {
	ID           string `json:"id"`
	GroupID      string `json:"group_id"`
	InviterID    string `json:"inviter_id"`
	InviteeEmail string `json:"invitee_email"`
	Status       string `json:"status"`
	CreatedAt    int64  `json:"created_at"`
}

func toInvitationResponse(inv *models.Invitation) invitationResponse {
	return invitationResponse{
		ID:           inv.ID,
		GroupID:      inv.GroupID,
		InviterID:    inv.InviterID,
		InviteeEmail: inv.InviteeEmail,
		Status:       inv.Status,
		CreatedAt:    inv.CreatedAt,
	}
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	group, err := s.groupService.CreateGroup(r.Context(), middleware.GetUserID(r.Context()), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupResponse(group))
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groupService.ListGroups(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, toGroupResponse(g))
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": resp})
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.groupService.GetGroup(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	inv, err := s.groupService.Invite(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvitationResponse(inv))
}

func (s *Server) handleListInvitations(w http.ResponseWriter, r *http.Request) {
	invitations, err := s.groupService.ListInvitations(r.Context(), middleware.GetEmail(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]invitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		resp = append(resp, toInvitationResponse(inv))
	}
	writeJSON(w, http.StatusOK, map[string]any{"invitations": resp})
}

func (s *Server) handleRespondInvitation(w http.ResponseWriter, r *http.Request) {
	var req respondInvitationRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	inv, err := s.groupService.Respond(ctx, middleware.GetUserID(ctx), middleware.GetEmail(ctx), r.PathValue("id"), req.Accept)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationResponse(inv))
}
