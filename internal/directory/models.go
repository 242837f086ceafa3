package directory

import (
	"time"

	"github.com/google/uuid"
)

// Applying policies. An open server admits anyone holding an
// invitation code; a by-form server additionally asks applicants to
// fill in its apply form.
const (
	PolicyOpen   = "open"
	PolicyByForm = "by_form"
)

// Server is one game server in the directory.
type Server struct {
	ID             int64     `json:"id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Name           string    `json:"name"`
	LogoLink       string    `json:"logo_link,omitempty"`
	CoverLink      string    `json:"cover_link,omitempty"`
	ApplyingPolicy string    `json:"applying_policy,omitempty"`
	JavaRemote     Remote    `json:"java_remote,omitzero"`
	BedrockRemote  Remote    `json:"bedrock_remote,omitzero"`
}

// Remote is a connect address for one game edition.
type Remote struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
}

// PublicInfo strips the remotes; connect addresses are only shown to
// members.
func (s Server) PublicInfo() Server {
	s.JavaRemote = Remote{}
	s.BedrockRemote = Remote{}
	return s
}

// Membership ties a player to a server.
type Membership struct {
	PlayerID   uuid.UUID `json:"player_id"`
	ServerID   int64     `json:"server_id"`
	IsOperator bool      `json:"is_operator"`
}

// Invitation is a join code an operator hands out. ReusableTimes
// counts the remaining uses; a negative value means unlimited.
type Invitation struct {
	Code          string
	ServerID      int64
	IssuedAt      time.Time
	Lifetime      time.Duration
	ReusableTimes int
}

// Expired reports whether the code can no longer admit anyone.
func (i Invitation) Expired(now time.Time) bool {
	return now.After(i.IssuedAt.Add(i.Lifetime)) || i.ReusableTimes == 0
}

// JoinResult classifies the outcome of redeeming an invitation code.
// Every value is a normal response, not an error; the client renders
// each one differently.
type JoinResult string

const (
	JoinSuccess       JoinResult = "success"
	JoinInvalidCode   JoinResult = "invalid_code"
	JoinCodeExpired   JoinResult = "expired_or_used_up"
	JoinNotBound      JoinResult = "not_bound"
	JoinAlreadyJoined JoinResult = "already_joined"
)

// Application is one submitted apply form.
type Application struct {
	ID        uuid.UUID `json:"id"`
	PlayerID  uuid.UUID `json:"player_id"`
	ServerID  int64     `json:"server_id"`
	FormID    uuid.UUID `json:"form_id"`
	Answers   []Answer  `json:"answers"`
	CreatedAt time.Time `json:"created_at"`
}

// Access application states. Review happens out of band; accepted and
// rejected applications stay listed until the submitter has seen the
// verdict.
type AccessState string

const (
	AccessReviewing       AccessState = "reviewing"
	AccessAcceptedPending AccessState = "accepted_pending"
	AccessRejectedUnread  AccessState = "rejected_unread"
)

// AccessFilter narrows an access-application listing.
type AccessFilter string

const (
	AccessFilterAll            AccessFilter = ""
	AccessFilterReviewing      AccessFilter = "reviewing"
	AccessFilterReviewedUnread AccessFilter = "reviewed_unread"
)

// AccessRequest is the payload of an access application: everything
// needed to list a new server in the directory.
type AccessRequest struct {
	Basic  AccessBasic   `json:"basic"`
	Remote AccessRemotes `json:"remote"`
	Policy string        `json:"policy"`
	Form   *ApplyForm    `json:"form,omitempty"`
}

type AccessBasic struct {
	Name         string `json:"name"`
	LogoLink     string `json:"logo_link"`
	CoverLink    string `json:"cover_link"`
	Introduction string `json:"introduction"`
}

// AccessRemotes carries the proposed connect addresses. At least one
// edition must be present.
type AccessRemotes struct {
	Java    *AccessRemote `json:"java,omitempty"`
	Bedrock *AccessRemote `json:"bedrock,omitempty"`
}

type AccessRemote struct {
	Address            string   `json:"address"`
	Port               int      `json:"port"`
	CoreVersion        string   `json:"core_version"`
	CompatibleVersions []string `json:"compatible_versions"`
}

// AccessApplication is one request to list a new server.
type AccessApplication struct {
	ID          uuid.UUID     `json:"id"`
	SubmittedBy uuid.UUID     `json:"submitted_by"`
	State       AccessState   `json:"state"`
	Request     AccessRequest `json:"request"`
	CreatedAt   time.Time     `json:"created_at"`
}
