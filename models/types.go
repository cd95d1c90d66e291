package models

import "time"

// Roles carried by an Actor
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleVoter     Role = "voter"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleVoter:
		return true
	}
	return false
}

// Sort keys accepted by PollQuery.SortBy
const (
	SortByTitle     = "title"
	SortByStartDate = "startdate"
	SortByEndDate   = "enddate"
)

// Page size limits
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Actor is the authenticated caller of a core operation. The zero value
// means nobody is logged in.
type Actor struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

func (a Actor) Anonymous() bool {
	return a.Email == ""
}

// Domain types

type Poll struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	StartDate   Date      `json:"start_date"`
	EndDate     Date      `json:"end_date"`
	IsDeleted   bool      `json:"-"`
	FileID      *string   `json:"file_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// OpenOn reports whether the poll accepts votes on the given day.
// The end date itself is closed.
func (p Poll) OpenOn(today Date) bool {
	return !p.IsDeleted && !today.Before(p.StartDate) && today.Before(p.EndDate)
}

type PollOption struct {
	ID        string `json:"id"`
	PollID    string `json:"poll_id"`
	Text      string `json:"text"`
	TextKey   string `json:"-"`
	Tally     int    `json:"tally"`
	IsDeleted bool   `json:"-"`
}

type PollDetails struct {
	Poll    Poll         `json:"poll"`
	Options []PollOption `json:"options"`
}

// EligibilityMarker records that a voter has voted in a poll. At most one
// exists per (VoterID, PollID).
type EligibilityMarker struct {
	ID      string    `json:"id"`
	VoterID string    `json:"voter_id"`
	PollID  string    `json:"poll_id"`
	VotedAt time.Time `json:"voted_at"`
}

// VoteRecord is anonymous: it names the option, never the voter.
type VoteRecord struct {
	ID       string    `json:"id"`
	OptionID string    `json:"option_id"`
	PollID   string    `json:"poll_id"`
	CastAt   time.Time `json:"cast_at"`
}

type AuditEntry struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	SubjectID   string     `json:"subject_id"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedBy   string     `json:"updated_by,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// VoterEmail is a whitelist entry issued by a moderator.
type VoterEmail struct {
	Email       string    `json:"email"`
	ModeratorID string    `json:"moderator_id"`
	IsUsed      bool      `json:"is_used"`
	CreatedAt   time.Time `json:"created_at"`
}

type Message struct {
	ID     string    `json:"id"`
	Body   string    `json:"body"`
	From   string    `json:"from"`
	PollID *string   `json:"poll_id,omitempty"`
	SentAt time.Time `json:"sent_at"`
}

type FileInfo struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// FileUpload is an attachment supplied with a poll draft or patch.
type FileUpload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// Request types

type PollDraft struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	StartDate   Date        `json:"start_date"`
	EndDate     Date        `json:"end_date"`
	OptionTexts []string    `json:"option_texts"`
	File        *FileUpload `json:"file,omitempty"`
}

// PollPatch fields left nil are unchanged. A non-nil OptionTexts replaces
// the whole option set.
type PollPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	StartDate   *Date       `json:"start_date,omitempty"`
	EndDate     *Date       `json:"end_date,omitempty"`
	OptionTexts []string    `json:"option_texts,omitempty"`
	File        *FileUpload `json:"file,omitempty"`
}

type CastVoteRequest struct {
	OptionID string `json:"option_id"`
}

type WhitelistRequest struct {
	Emails []string `json:"emails"`
}

type RegisterVoterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

// PollQuery filters, searches, sorts and pages polls. Zero values mean
// "no filter"; ForVoting only applies when VoterID is set.
type PollQuery struct {
	SearchTerm    string `json:"search_term"`
	SortBy        string `json:"sort_by"`
	SortDesc      bool   `json:"sort_desc"`
	CreatedBy     string `json:"created_by"`
	VoterID       string `json:"voter_id"`
	ForVoting     bool   `json:"for_voting"`
	StartDateFrom *Date  `json:"start_date_from,omitempty"`
	StartDateTo   *Date  `json:"start_date_to,omitempty"`
	Page          int    `json:"page"`
	PageSize      int    `json:"page_size"`
}

// Response types

type Pagination struct {
	TotalRecords int `json:"total_records"`
	Page         int `json:"page"`
	PageSize     int `json:"page_size"`
	TotalPages   int `json:"total_pages"`
}

type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type ModeratorStats struct {
	TotalPollsCreated      int `json:"total_polls_created"`
	TotalVoterEmailsIssued int `json:"total_voter_emails_issued"`
	TotalVoterEmailsUsed   int `json:"total_voter_emails_used"`
	TotalVotesReceived     int `json:"total_votes_received"`
}

type AdminStats struct {
	TotalPollsCreated int `json:"total_polls_created"`
	TotalVotes        int `json:"total_votes"`
	TotalModerators   int `json:"total_moderators"`
	TotalVoters       int `json:"total_voters"`
}

type VoterStats struct {
	TotalOngoingPolls int `json:"total_ongoing_polls"`
	TotalPollsVoted   int `json:"total_polls_voted"`
}

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}
